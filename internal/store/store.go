// Package store persists named graduated styles.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/config"
	"github.com/sells-group/choropleth/internal/symbology"
)

// ErrNotFound is returned when no style matches the requested id or name.
var ErrNotFound = eris.New("store: style not found")

// Style is a saved RangeSet plus the summary fields used for listing.
// RangeSet is only populated by the single-style getters.
type Style struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Attribute string              `json:"attribute"`
	Mode      string              `json:"mode"`
	Method    string              `json:"method"`
	Classes   int                 `json:"classes"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	RangeSet  *symbology.RangeSet `json:"-"`
}

// StyleFilter narrows ListStyles.
type StyleFilter struct {
	Attribute string `json:"attribute,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Store defines style persistence.
type Store interface {
	CreateStyle(ctx context.Context, name string, rs *symbology.RangeSet) (*Style, error)
	UpdateStyle(ctx context.Context, id string, rs *symbology.RangeSet) error
	GetStyle(ctx context.Context, id string) (*Style, error)
	GetStyleByName(ctx context.Context, name string) (*Style, error)
	ListStyles(ctx context.Context, filter StyleFilter) ([]Style, error)
	DeleteStyle(ctx context.Context, id string) error

	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

// Open builds the store selected by cfg.Driver and migrates it.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite", "":
		st, err = NewSQLite(cfg.Path)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// Resolve looks a style up by id, then by name.
func Resolve(ctx context.Context, st Store, ref string) (*Style, error) {
	s, err := st.GetStyle(ctx, ref)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return st.GetStyleByName(ctx, ref)
}

// summarize fills the listing fields of a style from rs and returns the
// serialized document.
func summarize(s *Style, rs *symbology.RangeSet) ([]byte, error) {
	if rs == nil {
		return nil, eris.Wrap(symbology.ErrInvalidArgument, "store: nil range set")
	}
	doc, err := symbology.Marshal(rs)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal style")
	}
	s.Attribute = rs.Attribute()
	s.Mode = rs.Mode().String()
	s.Method = rs.GraduatedMethod().String()
	s.Classes = rs.Len()
	s.RangeSet = rs
	return doc, nil
}

func decode(s *Style, doc []byte) error {
	rs, err := symbology.Unmarshal(doc)
	if err != nil {
		return eris.Wrapf(err, "store: decode style %s", s.ID)
	}
	s.RangeSet = rs
	return nil
}

func listLimit(filter StyleFilter) int {
	if filter.Limit <= 0 {
		return defaultListLimit
	}
	return filter.Limit
}
