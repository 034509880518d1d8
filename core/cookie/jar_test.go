package cookie_test

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cookiejar/core/cookie"
)

func TestJar_Registry(t *testing.T) {
	t.Run("make registers the cookie", func(t *testing.T) {
		jar := cookie.NewJar()

		c, err := jar.Make("theme", cookie.Params{Value: "dark"})
		require.NoError(t, err)

		got, ok := jar.Get("theme")
		require.True(t, ok)
		assert.Same(t, c, got)
		assert.Equal(t, "theme", got.Alias())
		assert.Equal(t, "theme", got.Name())
	})

	t.Run("make replaces an existing alias", func(t *testing.T) {
		jar := cookie.NewJar()

		_, err := jar.Make("theme", cookie.Params{Value: "dark"})
		require.NoError(t, err)
		second, err := jar.Make("theme", cookie.Params{Value: "light"})
		require.NoError(t, err)

		got, _ := jar.Get("theme")
		assert.Same(t, second, got)
		assert.Len(t, jar.All(), 1)
	})

	t.Run("unknown alias", func(t *testing.T) {
		_, ok := cookie.NewJar().Get("missing")
		assert.False(t, ok)
	})

	t.Run("all returns a snapshot", func(t *testing.T) {
		jar := cookie.NewJar()
		_, err := jar.Make("a", cookie.Params{})
		require.NoError(t, err)

		all := jar.All()
		delete(all, "a")

		_, ok := jar.Get("a")
		assert.True(t, ok)
	})

	t.Run("add stores a derived cookie", func(t *testing.T) {
		jar := cookie.NewJar()
		c, err := jar.Make("a", cookie.Params{Value: "x"})
		require.NoError(t, err)

		updated := c.WithValue("y")
		jar.Add(updated)

		got, _ := jar.Get("a")
		assert.Equal(t, "y", got.Value())
		assert.Equal(t, "x", c.Value())
	})

	t.Run("add ignores nil", func(t *testing.T) {
		jar := cookie.NewJar()

		assert.NotPanics(t, func() {
			assert.Same(t, jar, jar.Add(nil))
		})
		assert.Empty(t, jar.All())
	})

	t.Run("failed make does not register", func(t *testing.T) {
		jar := cookie.NewJar()

		_, err := jar.Make("bad", cookie.Params{Value: make(chan int)})
		assert.ErrorIs(t, err, cookie.ErrEncoding)

		_, ok := jar.Get("bad")
		assert.False(t, ok)
	})
}

func TestJar_FetchQueued(t *testing.T) {
	t.Run("drain is one-shot", func(t *testing.T) {
		jar := cookie.NewJar()
		c, err := jar.Make("a", cookie.Params{Value: "1"})
		require.NoError(t, err)
		c.Queue()

		queued := jar.FetchQueued()
		require.Len(t, queued, 1)
		assert.Equal(t, "a", queued[0].Alias())
		assert.False(t, queued[0].IsQueued())

		assert.Empty(t, jar.FetchQueued())
	})

	t.Run("only queued cookies in registry order", func(t *testing.T) {
		jar := cookie.NewJar()
		for _, alias := range []string{"c", "a", "b", "d"} {
			c, err := jar.Make(alias, cookie.Params{})
			require.NoError(t, err)
			if alias != "b" {
				c.Queue()
			}
		}

		// Overwriting keeps the original position.
		a, err := jar.Make("a", cookie.Params{Value: "new"})
		require.NoError(t, err)
		a.Queue()

		var aliases []string
		for _, c := range jar.FetchQueued() {
			aliases = append(aliases, c.Alias())
		}
		assert.Equal(t, []string{"c", "a", "d"}, aliases)
	})

	t.Run("unqueue removes the mark", func(t *testing.T) {
		jar := cookie.NewJar()
		c, err := jar.Make("a", cookie.Params{})
		require.NoError(t, err)

		c.Queue().Unqueue()
		assert.Empty(t, jar.FetchQueued())
	})

	t.Run("requeue after drain", func(t *testing.T) {
		jar := cookie.NewJar()
		c, err := jar.Make("a", cookie.Params{})
		require.NoError(t, err)

		c.Queue()
		require.Len(t, jar.FetchQueued(), 1)

		c.Queue()
		assert.Len(t, jar.FetchQueued(), 1)
	})

	t.Run("concurrent drains deliver each cookie once", func(t *testing.T) {
		jar := cookie.NewJar()
		const n = 100

		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c, err := jar.Make(fmt.Sprintf("c%d", i), cookie.Params{Value: i})
				if err == nil {
					c.Queue()
				}
			}()
		}
		wg.Wait()

		var total atomic.Int64
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				total.Add(int64(len(jar.FetchQueued())))
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(n), total.Load())
		assert.Len(t, jar.All(), n)
	})
}

func TestJar_Scope(t *testing.T) {
	jar := cookie.NewJar(
		cookie.WithClock(fixedClock),
		cookie.WithSalt("_s"),
		cookie.WithPrefix("p_"),
		cookie.WithLifetime(3600),
		cookie.WithSameSite(http.SameSiteLaxMode),
		cookie.WithMaxSize(1024),
	)
	cart, err := jar.Make("cart", cookie.Params{Value: "declared", Encrypted: true})
	require.NoError(t, err)
	cart.Queue()

	t.Run("shares configuration", func(t *testing.T) {
		scope := jar.Scope()

		salt, ok := scope.Salt()
		assert.True(t, ok)
		assert.Equal(t, "_s", salt)
		assert.Equal(t, "p_", scope.Prefix())
		assert.Equal(t, 3600, scope.Lifetime())
		assert.Equal(t, jar.Defaults(), scope.Defaults())
		assert.Equal(t, 1024, scope.MaxSize())
		assert.Same(t, jar.Logger(), scope.Logger())

		c, err := scope.Make("theme", cookie.Params{Value: "dark"})
		require.NoError(t, err)
		assert.Equal(t, "theme_s", c.Name())
		assert.Equal(t, "p_dark", c.Value())
		assert.Equal(t, fixedNow.Unix()+3600, c.Expires())
	})

	t.Run("starts with unqueued copies of declared cookies", func(t *testing.T) {
		scope := jar.Scope()

		got, ok := scope.Get("cart")
		require.True(t, ok)
		assert.NotSame(t, cart, got)
		assert.False(t, got.IsQueued())
		assert.True(t, cart.IsQueued())

		v, err := got.RealValue()
		require.NoError(t, err)
		assert.Equal(t, "declared", v)

		assert.Empty(t, scope.FetchQueued())
	})

	t.Run("changes stay in the scope", func(t *testing.T) {
		first, second := jar.Scope(), jar.Scope()

		c, err := first.Make("cart", cookie.Params{Value: "first", Encrypted: true})
		require.NoError(t, err)
		c.Queue()
		_, err = first.Make("extra", cookie.Params{})
		require.NoError(t, err)

		assert.Empty(t, second.FetchQueued())
		_, ok := second.Get("extra")
		assert.False(t, ok)
		_, ok = jar.Get("extra")
		assert.False(t, ok)

		got, _ := jar.Get("cart")
		assert.Same(t, cart, got)

		queued := first.FetchQueued()
		require.Len(t, queued, 1)
		assert.Same(t, c, queued[0])
	})

	t.Run("keeps registry order", func(t *testing.T) {
		jar := cookie.NewJar()
		for _, alias := range []string{"c", "a", "b"} {
			_, err := jar.Make(alias, cookie.Params{})
			require.NoError(t, err)
		}

		scope := jar.Scope()
		for _, alias := range []string{"b", "c", "a"} {
			c, _ := scope.Get(alias)
			c.Queue()
		}

		var aliases []string
		for _, c := range scope.FetchQueued() {
			aliases = append(aliases, c.Alias())
		}
		assert.Equal(t, []string{"c", "a", "b"}, aliases)
	})
}

func TestJar_GetDefaults(t *testing.T) {
	jar := cookie.NewJar(
		cookie.WithPath("/app"),
		cookie.WithDomain("example.com"),
		cookie.WithSameSite(http.SameSiteLaxMode),
	)
	yes, no := true, false

	t.Run("falls back to jar defaults", func(t *testing.T) {
		d := jar.GetDefaults("", "", nil, nil, nil, 0)
		assert.Equal(t, "/app", d.Path)
		assert.Equal(t, "example.com", d.Domain)
		assert.Nil(t, d.Secure)
		assert.True(t, d.HTTPOnly)
		assert.False(t, d.Raw)
		assert.Equal(t, http.SameSiteLaxMode, d.SameSite)
	})

	t.Run("explicit values win", func(t *testing.T) {
		d := jar.GetDefaults("/api", "api.example.com", &yes, &no, &yes, http.SameSiteStrictMode)
		assert.Equal(t, "/api", d.Path)
		assert.Equal(t, "api.example.com", d.Domain)
		require.NotNil(t, d.Secure)
		assert.True(t, *d.Secure)
		assert.False(t, d.HTTPOnly)
		assert.True(t, d.Raw)
		assert.Equal(t, http.SameSiteStrictMode, d.SameSite)
	})

	t.Run("explicit false secure keeps the jar default", func(t *testing.T) {
		secureJar := cookie.NewJar(cookie.WithSecure(true))
		d := secureJar.GetDefaults("", "", &no, nil, nil, 0)
		require.NotNil(t, d.Secure)
		assert.True(t, *d.Secure)
	})

	t.Run("set defaults", func(t *testing.T) {
		j := cookie.NewJar()
		j.SetDefaults("/x", "x.test", &no, nil, nil, http.SameSiteNoneMode)

		d := j.Defaults()
		assert.Equal(t, "/x", d.Path)
		assert.Equal(t, "x.test", d.Domain)
		require.NotNil(t, d.Secure)
		assert.False(t, *d.Secure)
		assert.True(t, d.HTTPOnly)
		assert.False(t, d.Raw)
		assert.Equal(t, http.SameSiteNoneMode, d.SameSite)

		j.SetDefaults("", "", nil, &no, &yes, 0)
		d = j.Defaults()
		assert.Nil(t, d.Secure)
		assert.False(t, d.HTTPOnly)
		assert.True(t, d.Raw)
	})
}

func TestJar_NameAndPrefix(t *testing.T) {
	t.Run("salt is appended and dots replaced", func(t *testing.T) {
		jar := cookie.NewJar(cookie.WithSalt(".v2"))

		c, err := jar.Make("user.pref", cookie.Params{})
		require.NoError(t, err)
		assert.Equal(t, "user_pref_v2", c.Name())
		assert.Equal(t, "user.pref", c.Alias())

		salt, ok := jar.Salt()
		assert.True(t, ok)
		assert.Equal(t, ".v2", salt)
	})

	t.Run("params override name and salt", func(t *testing.T) {
		jar := cookie.NewJar(cookie.WithSalt("_jar"))

		c, err := jar.Make("pref", cookie.Params{Name: "p", Salt: "_own"})
		require.NoError(t, err)
		assert.Equal(t, "p_own", c.Name())
	})

	t.Run("no salt", func(t *testing.T) {
		jar := cookie.NewJar()
		_, ok := jar.Salt()
		assert.False(t, ok)

		jar.SetSalt("_s")
		c, err := jar.Make("a", cookie.Params{})
		require.NoError(t, err)
		assert.Equal(t, "a_s", c.Name())
	})

	t.Run("jar prefix is the fallback", func(t *testing.T) {
		jar := cookie.NewJar(cookie.WithPrefix("j_"))

		c, err := jar.Make("a", cookie.Params{Value: "x"})
		require.NoError(t, err)
		assert.Equal(t, "j_", c.Prefix())
		assert.Equal(t, "j_x", c.Value())

		c, err = jar.Make("b", cookie.Params{Value: "x", Prefix: "p_"})
		require.NoError(t, err)
		assert.Equal(t, "p_x", c.Value())

		jar.SetPrefix("")
		c, err = jar.Make("c", cookie.Params{Value: "x"})
		require.NoError(t, err)
		assert.Equal(t, "x", c.Value())
	})

	t.Run("invalid prefix", func(t *testing.T) {
		jar := cookie.NewJar()

		for _, prefix := range []string{"a;b", "with space", "q\"", "é"} {
			_, err := jar.Make("a", cookie.Params{Value: "x", Prefix: prefix})
			assert.ErrorIs(t, err, cookie.ErrConfiguration, prefix)
		}
	})

	t.Run("cookie needs a jar", func(t *testing.T) {
		_, err := cookie.NewCookie("a", cookie.Params{}, nil)
		assert.ErrorIs(t, err, cookie.ErrConfiguration)
	})
}

func TestJar_Options(t *testing.T) {
	jar := cookie.NewJar(
		cookie.WithMaxSize(1024),
		cookie.WithRaw(true),
		cookie.WithHTTPOnly(false),
		cookie.WithLogger(nil),
		cookie.WithEncrypter(nil),
		cookie.WithValidator(nil),
	)

	assert.Equal(t, 1024, jar.MaxSize())
	assert.NotNil(t, jar.Logger())

	c, err := jar.Make("a", cookie.Params{Value: map[string]any{"k": "v"}, Encrypted: true})
	require.NoError(t, err)
	assert.True(t, c.IsRaw())
	assert.False(t, c.HTTPOnly())

	v, err := c.RealValue()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, v)

	assert.Equal(t, cookie.MaxCookieSize, cookie.NewJar(cookie.WithMaxSize(0)).MaxSize())
}
