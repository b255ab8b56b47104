package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestValue_String(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   Value
		want string
	}{
		{Number(30), "30"},
		{Number(2.5), "2.5"},
		{Number(-0.125), "-0.125"},
		{Bool(true), "true"},
		{Text("A"), "A"},
		{Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), "2024-03-01"},
		{Date(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)), "2024-03-01T10:30:00Z"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.want, func(t *testing.T) {
			t.Parallel()
			if got := tc.in.String(); got != tc.want {
				t.Fatalf("String()=%q want %q", got, tc.want)
			}
		})
	}
}

func TestValue_EqualAndKey(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CET", 3600)
	a := Date(time.Date(2024, 1, 1, 1, 0, 0, 0, loc))
	b := Date(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if !a.Equal(b) {
		t.Fatalf("dates with the same instant should be equal")
	}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ for equal dates")
	}
	if Number(1).Equal(Text("1")) {
		t.Fatalf("number and text must differ")
	}
	if Number(1).Key() == Text("1").Key() {
		t.Fatalf("keys collide across kinds")
	}
}

func TestValue_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	row := Row{
		"n": Number(12.5),
		"b": Bool(false),
		"d": Date(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
		"s": Text(""),
	}
	raw, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Row
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for k, v := range row {
		if !back[k].Equal(v) {
			t.Fatalf("%s: got %v want %v", k, back[k], v)
		}
	}
}

func TestErrors_IsSentinels(t *testing.T) {
	t.Parallel()

	var err error = fmt.Errorf("wrap: %w", NewParseError(MsgNoValidData))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("ParseError should match ErrParse")
	}
	if err.Error() != "wrap: "+MsgNoValidData {
		t.Fatalf("message=%q", err.Error())
	}
	big := &FileTooLargeError{Size: 6 << 20, Limit: 5 << 20}
	if !errors.Is(big, ErrFileTooLarge) || big.Error() != MsgTooLarge {
		t.Fatalf("unexpected too-large error: %v", big)
	}
	uf := &UnsupportedFormatError{Name: "a.xlsx", Msg: MsgConvertExcel}
	if !errors.Is(uf, ErrUnsupportedFormat) || errors.Is(uf, ErrParse) {
		t.Fatalf("unexpected sentinel matching for %v", uf)
	}
}

func TestFileTooLargeError_Units(t *testing.T) {
	t.Parallel()

	cases := []struct {
		limit int64
		want  string
	}{
		{0, MsgTooLarge},
		{5 << 20, MsgTooLarge},
		{10 << 20, "File size must be less than 10MB"},
		{512 << 10, "File size must be less than 512KB"},
		{1000, "File size must be less than 1000 bytes"},
	}
	for _, tc := range cases {
		got := (&FileTooLargeError{Size: tc.limit + 1, Limit: tc.limit}).Error()
		if got != tc.want {
			t.Fatalf("limit %d: got %q, want %q", tc.limit, got, tc.want)
		}
	}
}
