package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/contacts-api/internal/common"
	"github.com/isdelr/contacts-api/internal/models"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ContactServiceProvider defines the interface for contact services. Every
// operation is scoped to ownerID.
type ContactServiceProvider interface {
	ListContacts(ctx context.Context, ownerID string, page, limit int) (models.ContactPage, error)
	ListByFavorite(ctx context.Context, ownerID string, favorite *bool) ([]models.Contact, error)
	GetContact(ctx context.Context, ownerID, id string) (models.Contact, error)
	CreateContact(ctx context.Context, ownerID string, in ContactInput) (models.Contact, error)
	UpdateContact(ctx context.Context, ownerID, id string, patch models.ContactPatch) (models.Contact, error)
	SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (models.Contact, error)
	DeleteContact(ctx context.Context, ownerID, id string) error
}

// ContactService provides business logic for contact management.
type ContactService struct {
	db  *sql.DB
	now func() time.Time
}

// NewContactService creates a new ContactService.
func NewContactService(db *sql.DB) *ContactService {
	return &ContactService{db: db, now: time.Now}
}

const contactColumns = "id, owner_id, name, email, phone, favorite, created_at"

func scanContact(row rowScanner) (models.Contact, error) {
	var c models.Contact
	var createdAt int64
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Favorite, &createdAt); err != nil {
		return models.Contact{}, err
	}
	c.CreatedAt = time.Unix(createdAt, 0)
	return c, nil
}

func (s *ContactService) queryContacts(ctx context.Context, query string, args ...interface{}) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ListContacts returns one page of the owner's contacts. Out-of-range page
// and limit values fall back to defaults.
func (s *ContactService) ListContacts(ctx context.Context, ownerID string, page, limit int) (models.ContactPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contacts WHERE owner_id = ?", ownerID).Scan(&total); err != nil {
		return models.ContactPage{}, err
	}

	docs, err := s.queryContacts(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE owner_id = ? ORDER BY created_at, rowid LIMIT ? OFFSET ?",
		ownerID, limit, (page-1)*limit)
	if err != nil {
		return models.ContactPage{}, err
	}

	totalPages := (total + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}
	return models.ContactPage{
		Docs:       docs,
		TotalDocs:  total,
		Limit:      limit,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// ListByFavorite returns the owner's contacts, filtered by favorite when set.
func (s *ContactService) ListByFavorite(ctx context.Context, ownerID string, favorite *bool) ([]models.Contact, error) {
	if favorite == nil {
		return s.queryContacts(ctx, "SELECT "+contactColumns+" FROM contacts WHERE owner_id = ? ORDER BY created_at, rowid", ownerID)
	}
	return s.queryContacts(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE owner_id = ? AND favorite = ? ORDER BY created_at, rowid",
		ownerID, *favorite)
}

// GetContact retrieves one of the owner's contacts. Contacts of other owners
// are reported as not found.
func (s *ContactService) GetContact(ctx context.Context, ownerID, id string) (models.Contact, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+contactColumns+" FROM contacts WHERE id = ? AND owner_id = ?", id, ownerID)
	c, err := scanContact(row)
	if err != nil {
		if isNoRows(err) {
			return models.Contact{}, common.ErrNotFound
		}
		return models.Contact{}, err
	}
	return c, nil
}

// CreateContact stores a new contact for the owner.
func (s *ContactService) CreateContact(ctx context.Context, ownerID string, in ContactInput) (models.Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := in.Validate(); err != nil {
		return models.Contact{}, err
	}

	c := models.Contact{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Favorite:  in.Favorite,
		OwnerID:   ownerID,
		CreatedAt: time.Unix(s.now().Unix(), 0),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO contacts (id, owner_id, name, email, phone, favorite, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.OwnerID, c.Name, c.Email, c.Phone, c.Favorite, c.CreatedAt.Unix())
	if err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

// UpdateContact applies a partial update to one of the owner's contacts.
func (s *ContactService) UpdateContact(ctx context.Context, ownerID, id string, patch models.ContactPatch) (models.Contact, error) {
	if err := validateContactPatch(patch); err != nil {
		return models.Contact{}, err
	}

	var sets []string
	var args []interface{}
	if patch.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, strings.TrimSpace(*patch.Name))
	}
	if patch.Email != nil {
		sets, args = append(sets, "email = ?"), append(args, strings.TrimSpace(*patch.Email))
	}
	if patch.Phone != nil {
		sets, args = append(sets, "phone = ?"), append(args, strings.TrimSpace(*patch.Phone))
	}
	if patch.Favorite != nil {
		sets, args = append(sets, "favorite = ?"), append(args, *patch.Favorite)
	}
	args = append(args, id, ownerID)

	res, err := s.db.ExecContext(ctx,
		"UPDATE contacts SET "+strings.Join(sets, ", ")+" WHERE id = ? AND owner_id = ?", args...)
	if err != nil {
		return models.Contact{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Contact{}, err
	} else if n == 0 {
		return models.Contact{}, common.ErrNotFound
	}
	return s.GetContact(ctx, ownerID, id)
}

// SetFavorite updates only the favorite flag.
func (s *ContactService) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (models.Contact, error) {
	return s.UpdateContact(ctx, ownerID, id, models.ContactPatch{Favorite: &favorite})
}

// DeleteContact removes one of the owner's contacts.
func (s *ContactService) DeleteContact(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
