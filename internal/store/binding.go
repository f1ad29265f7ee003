package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Binding maps a gesture label to a plugin action.
type Binding struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config,omitempty"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

const bindingColumns = `id, label, plugin_name, action_name, config, enabled, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBinding(row scanner) (*Binding, error) {
	b := &Binding{}
	var config string
	var enabled int
	if err := row.Scan(&b.ID, &b.Label, &b.PluginName, &b.ActionName, &config, &enabled, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Config = json.RawMessage(config)
	b.Enabled = enabled != 0
	return b, nil
}

func configText(c json.RawMessage) string {
	if len(c) == 0 {
		return "{}"
	}
	return string(c)
}

// Create inserts b, assigning an ID if it has none.
func (r *BindingRepository) Create(b *Binding) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO bindings (`+bindingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Label, b.PluginName, b.ActionName, configText(b.Config), b.Enabled, b.CreatedAt,
	)
	return err
}

// GetByID retrieves a binding by its ID.
func (r *BindingRepository) GetByID(id string) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(`SELECT `+bindingColumns+` FROM bindings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetByLabel retrieves the binding for a gesture label.
// Returns nil, nil if nothing is bound to the label.
func (r *BindingRepository) GetByLabel(label string) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(`SELECT `+bindingColumns+` FROM bindings WHERE label = ?`, label))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// List retrieves all bindings ordered by label.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(`SELECT ` + bindingColumns + ` FROM bindings ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}

// Update replaces every mutable field of an existing binding.
func (r *BindingRepository) Update(b *Binding) error {
	result, err := r.db.Exec(
		`UPDATE bindings SET label = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		b.Label, b.PluginName, b.ActionName, configText(b.Config), b.Enabled, b.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// Delete removes a binding by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
