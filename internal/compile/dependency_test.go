package compile

import (
	"reflect"
	"testing"
)

func TestParseDependencies(t *testing.T) {
	tests := []struct {
		value   string
		want    []int
		wantBad string
		wantOK  bool
	}{
		{"None", nil, "", true},
		{"none.", nil, "", true},
		{"NONE", nil, "", true},
		{"", nil, "", true},
		{"#S1", []int{1}, "", true},
		{"#S2, #S1", []int{1, 2}, "", true},
		{"#S3 #S1,#S3", []int{1, 3}, "", true},
		{"#S1\n#S2", []int{1, 2}, "", true},
		{"S1", nil, "S1", false},
		{"#s1", nil, "#s1", false},
		{"#S1, step 2", nil, "step", false},
		{"None, #S1", nil, "None", false},
		{"#S1234567", nil, "#S1234567", false},
	}

	for _, tt := range tests {
		got, bad, ok := parseDependencies(tt.value)
		if ok != tt.wantOK || bad != tt.wantBad || !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseDependencies(%q) = (%v, %q, %v), want (%v, %q, %v)",
				tt.value, got, bad, ok, tt.want, tt.wantBad, tt.wantOK)
		}
	}
}
