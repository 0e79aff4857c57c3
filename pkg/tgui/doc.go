// Package tgui builds text for Telegram's HTML parse mode.
//
// Values of type H are already escaped; plain strings must go through Esc.
package tgui
