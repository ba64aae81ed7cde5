package domain_test

import (
	"testing"

	"github.com/aretw0/neoform/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArtifact(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Artifact
	}{
		{"net.neoforged:neoform:1.21-20240613.152323", domain.Artifact{Group: "net.neoforged", Name: "neoform", Version: "1.21-20240613.152323"}},
		{"org.vineflower:vineflower:1.10.1:slim", domain.Artifact{Group: "org.vineflower", Name: "vineflower", Version: "1.10.1", Classifier: "slim"}},
		{"net.neoforged:neoform:1.21@zip", domain.Artifact{Group: "net.neoforged", Name: "neoform", Version: "1.21", Extension: "zip"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseArtifact(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}

	for _, bad := range []string{"", "a:b", "a::c", "a:b:c:d:e", "a:b:c@"} {
		_, err := domain.ParseArtifact(bad)
		assert.Error(t, err, bad)
	}
}

func TestEqualValues(t *testing.T) {
	a := domain.List{domain.String("x"), domain.Artifact{Group: "g", Name: "n", Version: "1"}}
	b := domain.List{domain.String("x"), domain.Artifact{Group: "g", Name: "n", Version: "1"}}
	c := domain.List{domain.String("x")}

	assert.True(t, domain.EqualValues(a, b))
	assert.False(t, domain.EqualValues(a, c))
	assert.False(t, domain.EqualValues(domain.String("1"), domain.List{domain.String("1")}))
	assert.True(t, domain.EqualValues(domain.List{}, domain.List{}))
}
