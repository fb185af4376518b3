package directive

import (
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *string
	}{
		{
			name: "no directive",
			text: "Sounds good, let me know what else you need.",
			want: nil,
		},
		{
			name: "single directive",
			text: "Here:\n<prd_update>\n## Goals\n- ship it\n</prd_update>",
			want: strPtr("## Goals\n- ship it"),
		},
		{
			name: "surrounding prose",
			text: "Before <prd_update>  X  </prd_update> after",
			want: strPtr("X"),
		},
		{
			name: "only first of two",
			text: "<prd_update>X</prd_update> and <prd_update>Y</prd_update>",
			want: strPtr("X"),
		},
		{
			name: "empty payload",
			text: "<prd_update>\n\n</prd_update>",
			want: nil,
		},
		{
			name: "whitespace payload",
			text: "Nothing to add.\n<prd_update>\n   \n</prd_update>",
			want: nil,
		},
		{
			name: "unterminated",
			text: "<prd_update>## Goals",
			want: nil,
		},
		{
			name: "closing before opening",
			text: "</prd_update> text <prd_update>",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("Extract() = %q, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("Extract() = nil, want %q", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("Extract() = %q, want %q", *got, *tt.want)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
