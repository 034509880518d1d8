package cookie_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cookiejar/core/cookie"
)

func TestCodec_RoundTrip(t *testing.T) {
	values := map[string]any{
		"plain string":   "hello world",
		"numeric string": "123",
		"float string":   "-4.5",
		"empty string":   "",
		"object":         map[string]any{"items": []any{1.0, 2.0, 3.0}, "name": "cart", "ok": true},
		"array":          []any{"a", 1.0, nil},
	}

	for _, encrypted := range []bool{false, true} {
		for _, prefix := range []string{"", "pfx_"} {
			for name, value := range values {
				codec := cookie.Codec{Alias: "cart", Encrypted: encrypted, Prefix: prefix}

				t.Run(name, func(t *testing.T) {
					wire, ok, err := codec.Encode(value)
					require.NoError(t, err)
					require.True(t, ok)
					assert.True(t, strings.HasPrefix(wire, prefix))

					decoded, err := codec.Decode(wire)
					require.NoError(t, err)
					assert.Equal(t, value, decoded, "encrypted=%v prefix=%q", encrypted, prefix)
				})
			}
		}
	}
}

func TestCodec_Encode(t *testing.T) {
	t.Run("nil means no value", func(t *testing.T) {
		wire, ok, err := cookie.Codec{Alias: "a"}.Encode(nil)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, wire)
	})

	t.Run("strings are stored verbatim", func(t *testing.T) {
		wire, _, err := cookie.Codec{Alias: "a"}.Encode(`{"a":1}`)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, wire)
	})

	t.Run("structured values are serialized to json", func(t *testing.T) {
		wire, _, err := cookie.Codec{Alias: "a"}.Encode(map[string]int{"b": 2, "a": 1})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1,"b":2}`, wire)
	})

	t.Run("prefix is applied after encryption", func(t *testing.T) {
		codec := cookie.Codec{Alias: "cart", Encrypted: true, Prefix: "v1_"}
		wire, _, err := codec.Encode("hello")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(wire, "v1_"))

		plain, err := cookie.AESEncrypter{}.Decrypt(cookie.DeriveKey("cart"), strings.TrimPrefix(wire, "v1_"))
		require.NoError(t, err)
		assert.Equal(t, "hello", plain)
	})

	t.Run("unserializable value fails", func(t *testing.T) {
		_, _, err := cookie.Codec{Alias: "a"}.Encode(make(chan int))
		assert.ErrorIs(t, err, cookie.ErrEncoding)
	})

	t.Run("encryption is randomized", func(t *testing.T) {
		codec := cookie.Codec{Alias: "cart", Encrypted: true}
		first, _, err := codec.Encode("hello")
		require.NoError(t, err)
		second, _, err := codec.Encode("hello")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestCodec_Decode(t *testing.T) {
	codec := cookie.Codec{Alias: "a"}

	t.Run("numeric strings stay strings", func(t *testing.T) {
		for _, s := range []string{"123", "0", "-7", "1e3", " 42 "} {
			v, err := codec.Decode(s)
			require.NoError(t, err)
			assert.Equal(t, s, v)
		}
	})

	t.Run("json-like strings are decoded", func(t *testing.T) {
		v, err := codec.Decode(`{"a":[1,2]}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": []any{1.0, 2.0}}, v)

		v, err = codec.Decode("true")
		require.NoError(t, err)
		assert.Equal(t, true, v)
	})

	t.Run("other strings are returned as is", func(t *testing.T) {
		v, err := codec.Decode("{not json")
		require.NoError(t, err)
		assert.Equal(t, "{not json", v)
	})

	t.Run("custom validator accepting invalid json fails", func(t *testing.T) {
		lenient := cookie.Codec{Alias: "a", Validator: cookie.ValidatorFunc(func(string) bool { return true })}
		_, err := lenient.Decode("{not json")
		assert.ErrorIs(t, err, cookie.ErrDecoding)
	})

	t.Run("garbage ciphertext fails", func(t *testing.T) {
		_, err := cookie.Codec{Alias: "a", Encrypted: true}.Decode("not-a-ciphertext")
		assert.ErrorIs(t, err, cookie.ErrDecoding)
	})
}

func TestCodec_Prefix(t *testing.T) {
	codec := cookie.Codec{Alias: "a", Prefix: "pfx_"}

	t.Run("strips only a leading prefix", func(t *testing.T) {
		assert.Equal(t, "value", codec.StripPrefix("pfx_value"))
		assert.Equal(t, "value_pfx_", codec.StripPrefix("value_pfx_"))
	})

	t.Run("shorter than prefix is left unchanged", func(t *testing.T) {
		assert.Equal(t, "pf", codec.StripPrefix("pf"))

		v, err := codec.Decode("pf")
		require.NoError(t, err)
		assert.Equal(t, "pf", v)
	})

	t.Run("prefix is stripped once", func(t *testing.T) {
		wire, _, err := codec.Encode("pfx_inner")
		require.NoError(t, err)
		assert.Equal(t, "pfx_pfx_inner", wire)

		v, err := codec.Decode(wire)
		require.NoError(t, err)
		assert.Equal(t, "pfx_inner", v)
	})
}

func TestCodec_AliasIsolation(t *testing.T) {
	cart := cookie.Codec{Alias: "cart", Encrypted: true}
	session := cookie.Codec{Alias: "session", Encrypted: true}

	wire, _, err := cart.Encode("secret")
	require.NoError(t, err)

	_, err = session.Decode(wire)
	assert.ErrorIs(t, err, cookie.ErrDecoding)

	v, err := cart.Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, "secret", v)
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"123", true},
		{"-1.5", true},
		{"+3", true},
		{".5", true},
		{"2e10", true},
		{"", false},
		{"abc", false},
		{"12abc", false},
		{"0x1A", false},
		{"[1]", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cookie.IsNumeric(tt.in))
		})
	}
}
