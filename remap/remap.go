// Package remap translates Java edition identifiers to their Bedrock equivalents.
package remap

//go:generate mockgen -destination=mocks/remapper.go -package=mocks github.com/astei/anvil2bedrock/remap Remapper

// Remapper resolves Bedrock identifiers. Implementations are read-only once built
// and safe for concurrent use.
type Remapper interface {
	// Block maps a terrain block id and data value.
	Block(id, data byte) (byte, byte)

	// Item maps an item id (namespaced name or decimal number) and damage value
	// to a numeric Bedrock item id and data value.
	Item(id string, damage int16) (int16, int16)

	// Entity maps a tile entity or entity kind.
	Entity(kind string) string
}
