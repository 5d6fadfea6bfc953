package usecase

import (
	"context"
	"time"

	"contacts_backend/internal/feature/contacts/domain/entity"
)

// SearchField is a contact column that supports substring search.
type SearchField string

const (
	FieldFirstName SearchField = "first_name"
	FieldLastName  SearchField = "last_name"
	FieldEmail     SearchField = "email"
)

// Valid reports whether f is searchable.
func (f SearchField) Valid() bool {
	switch f {
	case FieldFirstName, FieldLastName, FieldEmail:
		return true
	}
	return false
}

// EmailPolicy controls contact email uniqueness.
type EmailPolicy string

const (
	// EmailUniqueGlobal forbids two contacts with the same email across all users.
	EmailUniqueGlobal EmailPolicy = "global"
	// EmailUniqueOwner forbids duplicates within one user's contacts.
	EmailUniqueOwner EmailPolicy = "owner"
	// EmailUniqueNone allows duplicates.
	EmailUniqueNone EmailPolicy = "none"
)

// ContactRepository abstracts the persistence layer for contacts. Every
// method that takes ownerID filters by it.
type ContactRepository interface {
	List(ctx context.Context, ownerID uint, offset, limit int) ([]entity.Contact, error)
	// FindByID returns ErrContactNotFound when the contact is missing or not owned by ownerID.
	FindByID(ctx context.Context, ownerID, id uint) (*entity.Contact, error)
	Create(ctx context.Context, c *entity.Contact) error
	Save(ctx context.Context, c *entity.Contact) error
	Delete(ctx context.Context, c *entity.Contact) error
	Search(ctx context.Context, ownerID uint, field SearchField, substring string, offset, limit int) ([]entity.Contact, error)
	ListAll(ctx context.Context, ownerID uint) ([]entity.Contact, error)
	// EmailTaken reports whether another contact already uses email. A nil
	// ownerID searches all users. excludeID skips the contact being updated.
	EmailTaken(ctx context.Context, email string, ownerID *uint, excludeID uint) (bool, error)
}

// ContactInput carries the writable fields of a contact.
type ContactInput struct {
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Birthday         time.Time
	OtherInformation *string
	Done             bool
}

// contactUsecase implements owner-scoped contact management.
type contactUsecase struct {
	contacts ContactRepository
	policy   EmailPolicy
	now      func() time.Time
}

// NewContactUsecase creates a new contactUsecase. An empty policy means EmailUniqueOwner.
func NewContactUsecase(contacts ContactRepository, policy EmailPolicy) *contactUsecase {
	if policy == "" {
		policy = EmailUniqueOwner
	}
	return &contactUsecase{contacts: contacts, policy: policy, now: time.Now}
}

// List returns a page of the owner's contacts.
func (u *contactUsecase) List(ctx context.Context, ownerID uint, offset, limit int) ([]entity.Contact, error) {
	return u.contacts.List(ctx, ownerID, offset, limit)
}

// Get returns one of the owner's contacts.
func (u *contactUsecase) Get(ctx context.Context, ownerID, id uint) (*entity.Contact, error) {
	return u.contacts.FindByID(ctx, ownerID, id)
}

// Create stores a new contact owned by ownerID.
func (u *contactUsecase) Create(ctx context.Context, ownerID uint, in ContactInput) (*entity.Contact, error) {
	if err := u.checkEmail(ctx, ownerID, in.Email, 0); err != nil {
		return nil, err
	}

	c := &entity.Contact{OwnerID: ownerID}
	apply(c, in)
	if err := u.contacts.Create(ctx, c); err != nil {
		return nil, err
	}
	return u.contacts.FindByID(ctx, ownerID, c.ID)
}

// Update replaces every writable field of an owned contact.
func (u *contactUsecase) Update(ctx context.Context, ownerID, id uint, in ContactInput) (*entity.Contact, error) {
	c, err := u.contacts.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := u.checkEmail(ctx, ownerID, in.Email, c.ID); err != nil {
		return nil, err
	}

	apply(c, in)
	if err := u.contacts.Save(ctx, c); err != nil {
		return nil, err
	}
	return u.contacts.FindByID(ctx, ownerID, id)
}

// PatchStatus sets only the done flag of an owned contact.
func (u *contactUsecase) PatchStatus(ctx context.Context, ownerID, id uint, done bool) (*entity.Contact, error) {
	c, err := u.contacts.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	c.Done = done
	if err := u.contacts.Save(ctx, c); err != nil {
		return nil, err
	}
	return u.contacts.FindByID(ctx, ownerID, id)
}

// Delete removes an owned contact and returns it.
func (u *contactUsecase) Delete(ctx context.Context, ownerID, id uint) (*entity.Contact, error) {
	c, err := u.contacts.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := u.contacts.Delete(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Search returns the owner's contacts whose field contains substring, ignoring case.
func (u *contactUsecase) Search(ctx context.Context, ownerID uint, field SearchField, substring string, offset, limit int) ([]entity.Contact, error) {
	if !field.Valid() {
		return nil, ErrInvalidSearchField
	}
	found, err := u.contacts.Search(ctx, ownerID, field, substring, offset, limit)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrContactsNotFound
	}
	return found, nil
}

// UpcomingBirthdays returns the owner's contacts with a birthday within the
// next days days, today included, nearest first.
func (u *contactUsecase) UpcomingBirthdays(ctx context.Context, ownerID uint, days, offset, limit int) ([]entity.Contact, error) {
	if days < 0 {
		return nil, ErrInvalidDays
	}
	all, err := u.contacts.ListAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	hits := paginate(upcoming(all, u.now(), days), offset, limit)
	if len(hits) == 0 {
		return nil, ErrContactsNotFound
	}
	return hits, nil
}

func (u *contactUsecase) checkEmail(ctx context.Context, ownerID uint, email string, excludeID uint) error {
	var scope *uint
	switch u.policy {
	case EmailUniqueNone:
		return nil
	case EmailUniqueOwner:
		scope = &ownerID
	}

	taken, err := u.contacts.EmailTaken(ctx, email, scope, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrContactEmailTaken
	}
	return nil
}

func apply(c *entity.Contact, in ContactInput) {
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Email = in.Email
	c.Phone = in.Phone
	c.Birthday = dateOf(in.Birthday)
	c.OtherInformation = in.OtherInformation
	c.Done = in.Done
}

func paginate(cs []entity.Contact, offset, limit int) []entity.Contact {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(cs) {
		return nil
	}
	cs = cs[offset:]
	if limit > 0 && limit < len(cs) {
		cs = cs[:limit]
	}
	return cs
}
