package composable

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/yndnr/composable-go/internal/core/domain"
	"github.com/yndnr/composable-go/pkg/addr"
)

// Set stores v under key.
func Set[T any](ctx context.Context, s Store, key []byte, v T) error {
	return s.Save(ctx, key, &v)
}

// SetNS stores v under key inside namespace.
func SetNS[T any](ctx context.Context, s Store, namespace, key []byte, v T) error {
	raw, err := s.Key(namespace, key)
	if err != nil {
		return err
	}
	return Set(ctx, s, raw, v)
}

// Get reads the value stored under key. found is false, with a nil error,
// when nothing is stored there.
func Get[T any](ctx context.Context, r Reader, key []byte) (v T, found bool, err error) {
	var p *T
	found, err = r.Load(ctx, key, &p)
	if err != nil || !found || p == nil {
		return v, false, err
	}
	return *p, true, nil
}

// GetNS reads the value stored under key inside namespace.
func GetNS[T any](ctx context.Context, r Reader, namespace, key []byte) (T, bool, error) {
	raw, err := r.Key(namespace, key)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return Get[T](ctx, r, raw)
}

// Remove deletes key.
func Remove(ctx context.Context, s Store, key []byte) error {
	return s.Remove(ctx, key)
}

// RemoveNS deletes key inside namespace.
func RemoveNS(ctx context.Context, s Store, namespace, key []byte) error {
	raw, err := s.Key(namespace, key)
	if err != nil {
		return err
	}
	return s.Remove(ctx, raw)
}

// Humanize converts v to its human form with the reader's address service.
func Humanize[H any](r Reader, v addr.Humanizer[H]) (H, error) {
	h, err := v.Humanize(r.API())
	if err != nil {
		return h, domain.ErrAddressCodec.WithCause(err)
	}
	return h, nil
}

// Canonize converts v to its canonical form with the reader's address service.
func Canonize[C any](r Reader, v addr.Canonizer[C]) (C, error) {
	c, err := v.Canonize(r.API())
	if err != nil {
		return c, domain.ErrAddressCodec.WithCause(err)
	}
	return c, nil
}

// keyString renders a raw key for logs: as text when printable, hex otherwise.
func keyString(key []byte) string {
	if utf8.Valid(key) {
		printable := true
		for _, r := range string(key) {
			if r < 0x20 || r == 0x7f {
				printable = false
				break
			}
		}
		if printable {
			return string(key)
		}
	}
	return fmt.Sprintf("%x", key)
}
