package options

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		prefixes []string
		want     string
	}{
		{nil, ""},
		{[]string{""}, ""},
		{[]string{"cache"}, "cache."},
		{[]string{"cache."}, "cache."},
		{[]string{"store", "", "milvus"}, "store.milvus."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Join(tt.prefixes...), "Join(%q)", tt.prefixes)
	}
}

type section struct{ errs []error }

func (s *section) Validate() []error                    { return s.errs }
func (s *section) AddFlags(*pflag.FlagSet, ...string) {}

func TestValidateAll(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")

	errs := ValidateAll(&section{}, &section{errs: []error{errA}}, nil, &section{errs: []error{errB}})
	assert.Equal(t, []error{errA, errB}, errs)
	assert.Empty(t, ValidateAll())
}
