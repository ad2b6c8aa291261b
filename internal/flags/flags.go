package flags

import (
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/featureflags/internal/manifest"
)

// ShowRegisterButtonKey controls whether clients render the registration button.
const ShowRegisterButtonKey = "SHOW_REGISTER_BUTTON"

// Store is the read-only view of the manifest the reader resolves flags from.
type Store interface {
	Lookup(key string) (manifest.Value, bool)
}

// Reader resolves boolean feature flags from a manifest store.
// Unknown or malformed flags are reported as disabled.
type Reader struct {
	store  Store
	logger *zap.Logger
}

// ReaderOption configures Reader behaviour.
type ReaderOption func(*Reader)

// WithLogger enables debug logging of lookups that fall back or fail.
func WithLogger(logger *zap.Logger) ReaderOption {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New constructs a Reader over the given store.
func New(store Store, opts ...ReaderOption) *Reader {
	if store == nil {
		store = manifest.Empty()
	}
	r := &Reader{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LookupOption narrows a single flag lookup.
type LookupOption func(*lookup)

type lookup struct {
	group    string
	hasGroup bool
}

// InGroup searches the named nested group instead of the top level. When the
// group is missing or is not a mapping, the top level is searched instead.
func InGroup(name string) LookupOption {
	return func(l *lookup) {
		l.group = name
		l.hasGroup = true
	}
}

// Boolean reports whether the flag stored under key is enabled.
func (r *Reader) Boolean(key string, opts ...LookupOption) bool {
	var l lookup
	for _, opt := range opts {
		opt(&l)
	}

	scope := r.scope(l)
	value, ok := scope.Lookup(key)
	if !ok {
		return false
	}

	text, ok := value.String()
	if !ok {
		r.logger.Debug("flag is not a string",
			zap.String("key", key),
			zap.String("group", l.group),
		)
		return false
	}

	return ParseBool(text)
}

// ShowRegisterButton reports whether the registration button should be shown.
func (r *Reader) ShowRegisterButton() bool {
	return r.Boolean(ShowRegisterButtonKey)
}

func (r *Reader) scope(l lookup) Store {
	if !l.hasGroup {
		return r.store
	}

	if value, ok := r.store.Lookup(l.group); ok {
		if group, ok := value.Group(); ok {
			return group
		}
	}

	r.logger.Debug("flag group not found, using top level", zap.String("group", l.group))
	return r.store
}

// ParseBool reports whether text is one of "true", "yes" or "1", ignoring case.
// Any other text, including the empty string, is false.
func ParseBool(text string) bool {
	switch strings.ToLower(text) {
	case "true", "yes", "1":
		return true
	default:
		return false
	}
}
