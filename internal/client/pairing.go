package client

import (
	"fmt"
	"path"

	"portfolio-backend/internal/naming"
)

// PairFiles names a before/after couple with a shared pairing key so the site
// can match them. An empty key gets a generated one.
func PairFiles(key string, before, after UploadFile) []UploadFile {
	if key == "" {
		key = naming.NewID()
	}
	before.Filename = naming.Paired(naming.Before, key, path.Ext(before.Name))
	after.Filename = naming.Paired(naming.After, key, path.Ext(after.Name))
	return []UploadFile{before, after}
}

// SideFile names one half of a pair, for completing a pair uploaded earlier
func SideFile(side, key string, f UploadFile) (UploadFile, error) {
	s := naming.ParseSide(side)
	if s == naming.Unrecognized {
		return UploadFile{}, fmt.Errorf("unknown side %q, want avant or apres", side)
	}
	if key == "" {
		return UploadFile{}, fmt.Errorf("a pairing key is required")
	}
	f.Filename = naming.Paired(s, key, path.Ext(f.Name))
	return f, nil
}
