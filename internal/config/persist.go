package config

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mongokit/mongokit/internal/atomicfile"
)

// Save writes the whole snapshot back to path. Mutations (preset add or
// remove) happen in memory first; this is the single auditable write
// point. The write is atomic so a concurrent reader never sees a torn
// file.
func (c *AppConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	data = append(data, '\n')

	af, err := atomicfile.Create(path)
	if err != nil {
		return err
	}
	if _, err := af.Write(data); err != nil {
		af.Abort()
		return errors.Wrap(err, "write config")
	}
	return af.Commit()
}
