// Package discovery finds and announces framecast receivers on the local
// network via mDNS. Receivers register a "_framecast._tcp" service carrying
// their stream geometry in TXT records; senders browse for endpoints instead
// of needing a configured address.
package discovery
