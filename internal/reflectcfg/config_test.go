// SPDX-License-Identifier: MPL-2.0

package reflectcfg

import (
	"bytes"
	"reflect"
	"testing"
)

func TestClassConfig_RequireConstructorNeverDowngrades(t *testing.T) {
	tests := []struct {
		name  string
		steps []Constructor
		want  Constructor
	}{
		{"none", nil, ConstructorNone},
		{"activator only", []Constructor{ConstructorNoArg}, ConstructorNoArg},
		{"activator then component", []Constructor{ConstructorNoArg, ConstructorAllPublic}, ConstructorAllPublic},
		{"component then activator", []Constructor{ConstructorAllPublic, ConstructorNoArg}, ConstructorAllPublic},
		{"interface after component", []Constructor{ConstructorAllPublic, ConstructorNone}, ConstructorAllPublic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassConfig("p.C")
			for _, k := range tt.steps {
				c.RequireConstructor(k)
			}
			if c.Constructor != tt.want {
				t.Errorf("Constructor = %v, want %v", c.Constructor, tt.want)
			}
		})
	}
}

func TestConfigs_Merge(t *testing.T) {
	a := Configs{}
	a.Ensure("p.A").AddField("z")
	a.Ensure("p.A").AddField("a")
	a.Ensure("p.A").RequireConstructor(ConstructorNoArg)

	b := Configs{}
	b.Ensure("p.A").AddField("a")
	b.Ensure("p.A").AddMethod("run")
	b.Ensure("p.A").RequireConstructor(ConstructorAllPublic)
	b.Ensure("p.B")

	a.Merge(b)

	if got := a.Names(); !reflect.DeepEqual(got, []string{"p.A", "p.B"}) {
		t.Errorf("Names() = %v", got)
	}
	pa := a["p.A"]
	if got := pa.Fields(); !reflect.DeepEqual(got, []string{"a", "z"}) {
		t.Errorf("Fields() = %v", got)
	}
	if got := pa.Methods(); !reflect.DeepEqual(got, []string{"run"}) {
		t.Errorf("Methods() = %v", got)
	}
	if pa.Constructor != ConstructorAllPublic {
		t.Errorf("Constructor = %v", pa.Constructor)
	}
	if !a["p.B"].Empty() {
		t.Error("p.B should be empty")
	}
}

func TestEncode_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Configs{}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[]\n" {
		t.Errorf("Encode() = %q, want %q", buf.String(), "[]\n")
	}
}

func TestEncode_NoArgConstructorPrecedesMethods(t *testing.T) {
	cs := Configs{}
	c := cs.Ensure("p.Act")
	c.RequireConstructor(ConstructorNoArg)
	c.AddMethod("b")
	c.AddMethod("a")
	c.AddField("f")

	got, err := Marshal(cs)
	if err != nil {
		t.Fatal(err)
	}
	want := `[
  {
    "name": "p.Act",
    "fields": [
      {
        "name": "f"
      }
    ],
    "methods": [
      {
        "name": "<init>",
        "parameterTypes": []
      },
      {
        "name": "a"
      },
      {
        "name": "b"
      }
    ]
  }
]
`
	if string(got) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", got, want)
	}
}
