package configstore

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/namba3/patrol/internal/domain"
)

// record is the on-disk shape of one target's config in the persisted,
// per-id config file.
type record struct {
	Url         string  `toml:"url"`
	Selector    string  `toml:"selector"`
	Mode        string  `toml:"mode,omitempty"`
	WaitSeconds *uint16 `toml:"wait_seconds,omitempty"`
}

type fileFormat map[string]record

func loadFile(path string) (map[domain.Id]domain.Config, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied, same trust level as beads' configfile.Load
	if os.IsNotExist(err) {
		return map[domain.Id]domain.Config{}, nil
	}
	if err != nil {
		return nil, &FileError{Path: path, Op: "read", Err: err}
	}

	var ff fileFormat
	if err := toml.Unmarshal(raw, &ff); err != nil {
		return nil, &FileError{Path: path, Op: "parse", Err: err}
	}

	out := make(map[domain.Id]domain.Config, len(ff))
	for idStr, rec := range ff {
		id, err := domain.ParseID(idStr)
		if err != nil {
			return nil, &FileError{Path: path, Op: "parse", Err: err}
		}
		u, err := domain.ParseUrl(rec.Url)
		if err != nil {
			return nil, &FileError{Path: path, Op: "parse", Err: err}
		}
		sel, err := domain.ParseSelector(rec.Selector)
		if err != nil {
			return nil, &FileError{Path: path, Op: "parse", Err: err}
		}
		out[id] = domain.Config{
			Url:         u,
			Selector:    sel,
			Mode:        domain.ParseMode(rec.Mode),
			WaitSeconds: rec.WaitSeconds,
		}
	}
	return out, nil
}

func saveFile(path string, configs map[domain.Id]domain.Config) error {
	ff := make(fileFormat, len(configs))
	for id, cfg := range configs {
		ff[id.String()] = record{
			Url:         cfg.Url.String(),
			Selector:    cfg.Selector.String(),
			Mode:        string(cfg.Mode),
			WaitSeconds: cfg.WaitSeconds,
		}
	}

	buf, err := toml.Marshal(ff)
	if err != nil {
		return &FileError{Path: path, Op: "write", Err: err}
	}

	// Truncate-and-rewrite: the whole snapshot is written in one call, same
	// as steveyegge-beads/internal/configfile.Config.Save.
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return &FileError{Path: path, Op: "write", Err: err}
	}
	return nil
}
