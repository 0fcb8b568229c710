package cloudinary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignIsDeterministic(t *testing.T) {
	c := New("demo", "key123", "secret123", "qrcodes")
	params := map[string]string{
		"timestamp": "1700000000",
		"public_id": "qr_student_42",
		"overwrite": "true",
		"folder":    "qrcodes",
	}
	assert.Equal(t, c.sign(params), c.sign(params))
	assert.Len(t, c.sign(params), 40)
}

func TestSignExcludesAPIKeyAndFile(t *testing.T) {
	c := New("demo", "key123", "secret123", "")
	base := map[string]string{
		"timestamp": "1700000000",
		"public_id": "qr_student_42",
	}
	withExcluded := map[string]string{
		"timestamp":     "1700000000",
		"public_id":     "qr_student_42",
		"api_key":       "key123",
		"file":          "blob",
		"resource_type": "image",
	}
	assert.Equal(t, c.sign(base), c.sign(withExcluded))
}

func TestSignDependsOnSecretAndParams(t *testing.T) {
	params := map[string]string{"timestamp": "1700000000", "public_id": "qr_student_42"}

	a := New("demo", "key123", "secret-a", "")
	b := New("demo", "key123", "secret-b", "")
	assert.NotEqual(t, a.sign(params), b.sign(params))

	other := map[string]string{"timestamp": "1700000001", "public_id": "qr_student_42"}
	assert.NotEqual(t, a.sign(params), a.sign(other))
}
