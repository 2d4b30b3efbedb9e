package toon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEncoder(t *testing.T, opts EncodeOptions) *Encoder {
	t.Helper()
	enc, err := NewEncoder(opts)
	require.NoError(t, err)
	return enc
}

func TestFoldKey(t *testing.T) {
	chain := Object(M("b", Object(M("c", Int(1)))))

	key, leaf := foldKey("a", chain, KeyFoldingOff, 0)
	assert.Equal(t, "a", key)
	assert.Same(t, chain, leaf)

	key, leaf = foldKey("a", chain, KeyFoldingSafe, 0)
	assert.Equal(t, "a.b.c", key)
	assert.True(t, Equal(Int(1), leaf))

	key, leaf = foldKey("a", chain, KeyFoldingSafe, 2)
	assert.Equal(t, "a.b", key)
	assert.True(t, Equal(Object(M("c", Int(1))), leaf))

	key, _ = foldKey("my key", chain, KeyFoldingSafe, 0)
	assert.Equal(t, `"my key"`, key)

	key, leaf = foldKey("a", Int(1), KeyFoldingSafe, 0)
	assert.Equal(t, "a", key)
	assert.True(t, Equal(Int(1), leaf))
}

func TestKeyFolding(t *testing.T) {
	safe := EncodeOptions{Indent: 2, KeyFolding: KeyFoldingSafe}
	tests := []struct {
		name string
		opts EncodeOptions
		v    *Value
		want string
	}{
		{
			name: "off by default",
			opts: DefaultEncodeOptions(),
			v:    Object(M("a", Object(M("b", Object(M("c", Int(1))))))),
			want: "a:\n  b:\n    c: 1",
		},
		{
			name: "safe chain",
			opts: safe,
			v:    Object(M("a", Object(M("b", Object(M("c", Int(1))))))),
			want: "a.b.c: 1",
		},
		{
			name: "chain stops at multi-key object",
			opts: EncodeOptions{Indent: 2, Flatten: true, FlattenDepth: 3},
			v: Object(M("meta", Object(M("info", Object(
				M("id", Int(123)),
				M("env", Str("prod")),
			))))),
			want: "meta.info:\n  id: 123\n  env: prod",
		},
		{
			name: "depth cap",
			opts: EncodeOptions{Indent: 2, KeyFolding: KeyFoldingSafe, FlattenDepth: 2},
			v:    Object(M("a", Object(M("b", Object(M("c", Int(1))))))),
			want: "a.b:\n  c: 1",
		},
		{
			name: "chain ending in array",
			opts: safe,
			v:    Object(M("data", Object(M("items", Array(Int(1), Int(2)))))),
			want: "data.items[2]: 1,2",
		},
		{
			name: "safe mode skips dotted keys",
			opts: safe,
			v:    Object(M("a", Object(M("x.y", Int(1))))),
			want: "a:\n  \"x.y\": 1",
		},
		{
			name: "aggressive mode folds dotted keys",
			opts: EncodeOptions{Indent: 2, KeyFolding: KeyFoldingAggressive},
			v:    Object(M("a", Object(M("x.y", Int(1))))),
			want: "a.x.y: 1",
		},
		{
			name: "folding inside list items",
			opts: safe,
			v:    Object(M("items", Array(Object(M("cfg", Object(M("on", Bool(true))))), Int(2)))),
			want: "items[2]:\n  - cfg.on: true\n  - 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustEncoder(t, tt.opts).Encode(tt.v))
		})
	}
}

func TestSafeFoldingRoundTrips(t *testing.T) {
	v := Object(
		M("a.b", Int(1)),
		M("a", Object(M("b", Object(M("c", Str("deep")))))),
		M("server", Object(M("tls", Object(M("enabled", Bool(true)))))),
		M("list", Array(Object(M("x", Object(M("y", Int(1))))))),
	)
	text := mustEncoder(t, EncodeOptions{Indent: 2, KeyFolding: KeyFoldingSafe}).Encode(v)
	assert.Equal(t, "\"a.b\": 1\na.b.c: deep\nserver.tls.enabled: true\nlist[1]:\n  - x.y: 1", text)

	got, err := Decode(text)
	require.NoError(t, err)
	assert.True(t, Equal(v, got), "decoded:\n%s", Encode(got))
}

func TestReplacerOmitsAndTransforms(t *testing.T) {
	v := Object(M("user", Object(
		M("name", Str("ada")),
		M("password", Str("secret")),
		M("tags", Array(Str("a"), Str("b"), Str("c"))),
	)))
	var paths []string
	opts := DefaultEncodeOptions()
	opts.Replacer = func(key string, val *Value, path []string) *Value {
		paths = append(paths, strings.Join(path, "/"))
		switch {
		case key == "password":
			return Omit
		case key == "1":
			return Omit
		case val.Kind() == KindString:
			s, _ := val.AsString()
			return Str(strings.ToUpper(s))
		}
		return val
	}
	got := mustEncoder(t, opts).Encode(v)
	assert.Equal(t, "user:\n  name: ADA\n  tags[2]: A,C", got)
	assert.Equal(t, []string{"", "user", "user/name", "user/password", "user/tags", "user/tags/0", "user/tags/1", "user/tags/2"}, paths)

	// the input tree is untouched
	pw, err := v.Get("user").Get("password").AsString()
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)
}

func TestReplacerRootOmitIsIgnored(t *testing.T) {
	opts := DefaultEncodeOptions()
	opts.Replacer = func(key string, val *Value, path []string) *Value {
		if key == "" {
			return Omit
		}
		return val
	}
	assert.Equal(t, "a: 1", mustEncoder(t, opts).Encode(Object(M("a", Int(1)))))
}

func TestReplacerRunsBeforeClassification(t *testing.T) {
	// dropping the odd key makes the rows uniform again
	v := Object(M("rows", Array(
		Object(M("id", Int(1))),
		Object(M("id", Int(2)), M("debug", Bool(true))),
	)))
	opts := DefaultEncodeOptions()
	opts.Replacer = func(key string, val *Value, path []string) *Value {
		if key == "debug" {
			return Omit
		}
		return val
	}
	assert.Equal(t, "rows[2]{id}:\n  1\n  2", mustEncoder(t, opts).Encode(v))
}
