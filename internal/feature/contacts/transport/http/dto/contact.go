// Package dto はcontactsフィーチャーのHTTPトランスポート層で使うDTOを定義します。
package dto

import (
	"errors"
	"time"

	"contacts_backend/internal/api"
	"contacts_backend/internal/feature/contacts/domain/entity"
	"contacts_backend/internal/feature/contacts/usecase"
)

var birthdayLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// ErrInvalidBirthday は誕生日が日付として解釈できない場合に返されます。
var ErrInvalidBirthday = errors.New("birthday must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")

// ContactReq は POST と PUT /contacts のリクエストボディです。
type ContactReq struct {
	FirstName        string  `json:"first_name" binding:"required,max=50"`
	LastName         string  `json:"last_name" binding:"required,max=50"`
	Email            string  `json:"email" binding:"required,email,max=255"`
	Phone            string  `json:"phone" binding:"required,max=50"`
	Birthday         string  `json:"birthday" binding:"required"`
	OtherInformation *string `json:"other_information" binding:"omitempty,max=250"`
	Done             bool    `json:"done"`
}

// Input はリクエストをユースケースの入力に変換します。
func (r ContactReq) Input() (usecase.ContactInput, error) {
	bday, err := ParseBirthday(r.Birthday)
	if err != nil {
		return usecase.ContactInput{}, err
	}
	return usecase.ContactInput{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Email:            r.Email,
		Phone:            r.Phone,
		Birthday:         bday,
		OtherInformation: r.OtherInformation,
		Done:             r.Done,
	}, nil
}

// StatusReq は PATCH /contacts/:id のリクエストボディです。
type StatusReq struct {
	Done *bool `json:"done" binding:"required"`
}

// ListQuery はページングと任意の検索条件1つを保持します。
type ListQuery struct {
	Skip      int    `form:"skip,default=0" binding:"min=0"`
	Limit     int    `form:"limit,default=100" binding:"min=1,max=1000"`
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	Email     string `form:"email"`
}

// PageQuery はページングのみを保持します。
type PageQuery struct {
	Skip  int `form:"skip,default=0" binding:"min=0"`
	Limit int `form:"limit,default=100" binding:"min=1,max=1000"`
}

// ParseBirthday は日付のみ、またはタイムスタンプを受け付けます。
func ParseBirthday(s string) (time.Time, error) {
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidBirthday
}

// NewContactResponse は連絡先を公開用のレスポンスに変換します。
func NewContactResponse(c *entity.Contact) api.ContactResponse {
	return api.ContactResponse{
		ID:               c.ID,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Email:            c.Email,
		Phone:            c.Phone,
		Birthday:         c.Birthday,
		OtherInformation: c.OtherInformation,
		Done:             c.Done,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// NewContactListResponse は連絡先一覧を変換します。0件の場合もnilではなく空スライスを返します。
func NewContactListResponse(cs []entity.Contact) []api.ContactResponse {
	out := make([]api.ContactResponse, 0, len(cs))
	for i := range cs {
		out = append(out, NewContactResponse(&cs[i]))
	}
	return out
}
