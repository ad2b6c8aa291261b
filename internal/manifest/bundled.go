package manifest

import (
	_ "embed"
	"fmt"
	"sync"
)

//go:embed bundled.yaml
var bundledManifest []byte

var bundled = sync.OnceValue(func() *Store {
	store, err := Parse(bundledManifest)
	if err != nil {
		panic(fmt.Sprintf("bundled manifest is invalid: %v", err))
	}
	return store
})

// Bundled returns the manifest embedded in the binary. It is parsed on first
// use and shared by every caller for the lifetime of the process.
func Bundled() *Store {
	return bundled()
}
