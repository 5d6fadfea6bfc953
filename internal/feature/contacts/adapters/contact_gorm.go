// Package adapters はcontactsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"contacts_backend/internal/feature/contacts/domain/entity"
	"contacts_backend/internal/feature/contacts/usecase"
)

// searchColumns はクエリに埋め込んでよいカラムのホワイトリストです。
var searchColumns = map[usecase.SearchField]string{
	usecase.FieldFirstName: "first_name",
	usecase.FieldLastName:  "last_name",
	usecase.FieldEmail:     "email",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contactGorm はContactRepositoryインターフェースのgorm実装です。
type contactGorm struct {
	db *gorm.DB
}

// contactGorm がContactRepositoryを実装していることをコンパイル時に保証します。
var _ usecase.ContactRepository = (*contactGorm)(nil)

// NewContactGorm はcontactGormの新しいインスタンスを生成します。
func NewContactGorm(db *gorm.DB) *contactGorm {
	return &contactGorm{db: db}
}

func (r *contactGorm) owned(ctx context.Context, ownerID uint) *gorm.DB {
	return r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
}

// List は所有者の連絡先をid順に1ページ分返します。
func (r *contactGorm) List(ctx context.Context, ownerID uint, offset, limit int) ([]entity.Contact, error) {
	var out []entity.Contact
	err := r.owned(ctx, ownerID).Order("id").Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

// FindByID は存在しない連絡先と他ユーザーの連絡先のどちらにも usecase.ErrContactNotFound を返します。
func (r *contactGorm) FindByID(ctx context.Context, ownerID, id uint) (*entity.Contact, error) {
	var c entity.Contact
	if err := r.owned(ctx, ownerID).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrContactNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create はcを挿入します。
func (r *contactGorm) Create(ctx context.Context, c *entity.Contact) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Save は既存の連絡先の全カラムを書き込みます。
func (r *contactGorm) Save(ctx context.Context, c *entity.Contact) error {
	res := r.owned(ctx, c.OwnerID).Model(c).Select("*").Omit("id", "created_at", "owner_id").Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrContactNotFound
	}
	return nil
}

// Delete はcを削除します。
func (r *contactGorm) Delete(ctx context.Context, c *entity.Contact) error {
	res := r.owned(ctx, c.OwnerID).Delete(&entity.Contact{}, c.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrContactNotFound
	}
	return nil
}

// Search はfieldに対して大文字小文字を区別せずsubstringで部分一致検索します。
// substring内のLIKEワイルドカードは文字としてそのまま照合します。
func (r *contactGorm) Search(ctx context.Context, ownerID uint, field usecase.SearchField, substring string, offset, limit int) ([]entity.Contact, error) {
	col, ok := searchColumns[field]
	if !ok {
		return nil, usecase.ErrInvalidSearchField
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(substring)) + "%"

	var out []entity.Contact
	err := r.owned(ctx, ownerID).
		Where("LOWER("+col+") LIKE ? ESCAPE '\\'", pattern).
		Order("id").Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

// ListAll は所有者の全連絡先を返します。
func (r *contactGorm) ListAll(ctx context.Context, ownerID uint) ([]entity.Contact, error) {
	var out []entity.Contact
	err := r.owned(ctx, ownerID).Order("id").Find(&out).Error
	return out, err
}

// EmailTaken はexcludeID以外の連絡先がemailを使用しているかを大文字小文字を区別せずに判定します。
// ownerIDがnilの場合は全ユーザーを対象にします。
func (r *contactGorm) EmailTaken(ctx context.Context, email string, ownerID *uint, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&entity.Contact{}).Where("LOWER(email) = ?", strings.ToLower(email))
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
