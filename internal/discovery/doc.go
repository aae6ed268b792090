// Package discovery handles mDNS/Bonjour announcement and discovery of
// moded collectors.
//
// A running collector registers itself as a "_moded._tcp" service so that
// meters and tooling on the local network can find it without
// configuration. TXT records carry the collector version and, when the
// websocket feed is enabled, its port.
//
// The scanner side browses for announced collectors; moded-watch uses it
// to locate a feed when no address is given on the command line.
package discovery
