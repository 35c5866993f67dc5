package strtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOpenStep(t *testing.T) {
	table, err := Parse([]byte(`{
	"greeting" = "Hello";
	"farewell" = "Goodbye, \"friend\"";
}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"greeting": "Hello",
		"farewell": `Goodbye, "friend"`,
	}, table)
}

func TestParseXMLDropsNonStrings(t *testing.T) {
	table, err := Parse([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>title</key>
	<string>Settings</string>
	<key>count</key>
	<integer>3</integer>
	<key>nested</key>
	<dict/>
</dict>
</plist>`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"title": "Settings"}, table)
}

func TestParseRejectsNonDictionaryRoots(t *testing.T) {
	_, err := Parse([]byte(`("a", "b")`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{ "unterminated" = `))
	assert.Error(t, err)
}

func TestParseStringsFileWithoutBraces(t *testing.T) {
	table, err := Parse([]byte("/* Menu */\n\"open\" = \"Open\";\n\"close\" = \"Close\";\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"open": "Open", "close": "Close"}, table)
}
