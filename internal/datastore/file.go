package datastore

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/namba3/patrol/internal/domain"
)

// record is the on-disk shape of one target's data in the persisted,
// per-id data file.
type record struct {
	Hash        string     `toml:"hash,omitempty"`
	LastUpdated *time.Time `toml:"last_updated,omitempty"`
	LastChecked time.Time  `toml:"last_checked"`
}

type fileFormat map[string]record

func loadFile(path string) (map[domain.Id]domain.Data, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if os.IsNotExist(err) {
		return map[domain.Id]domain.Data{}, nil
	}
	if err != nil {
		return nil, &FileError{Path: path, Op: "read", Err: err}
	}

	var ff fileFormat
	if err := toml.Unmarshal(raw, &ff); err != nil {
		return nil, &FileError{Path: path, Op: "parse", Err: err}
	}

	out := make(map[domain.Id]domain.Data, len(ff))
	for idStr, rec := range ff {
		id, err := domain.ParseID(idStr)
		if err != nil {
			return nil, &FileError{Path: path, Op: "parse", Err: err}
		}
		d := domain.Data{LastChecked: domain.NewTimestamp(rec.LastChecked)}
		if rec.Hash != "" {
			h, err := domain.ParseHash(rec.Hash)
			if err != nil {
				return nil, &FileError{Path: path, Op: "parse", Err: err}
			}
			d.Hash = &h
		}
		if rec.LastUpdated != nil {
			ts := domain.NewTimestamp(*rec.LastUpdated)
			d.LastUpdated = &ts
		}
		out[id] = d
	}
	return out, nil
}

func saveFile(path string, data map[domain.Id]domain.Data) error {
	ff := make(fileFormat, len(data))
	for id, d := range data {
		rec := record{LastChecked: d.LastChecked.Time()}
		if d.Hash != nil {
			rec.Hash = d.Hash.String()
		}
		if d.LastUpdated != nil {
			t := d.LastUpdated.Time()
			rec.LastUpdated = &t
		}
		ff[id.String()] = rec
	}

	buf, err := toml.Marshal(ff)
	if err != nil {
		return &FileError{Path: path, Op: "write", Err: err}
	}

	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return &FileError{Path: path, Op: "write", Err: err}
	}
	return nil
}
