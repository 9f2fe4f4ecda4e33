// Package topic decomposes broker topic strings into routing metadata.
package topic

import "strings"

// SentinelSiteID marks topics that do not carry a real site identifier.
// When a ParsedTopic holds this value the site must be read from the payload.
const SentinelSiteID = "mqtt"

// ParsedTopic is the routing metadata extracted from one topic string.
type ParsedTopic struct {
	Namespace string
	SiteID    string
	DataType  string
}

// FromPayload reports whether the site identifier must come from the payload
// instead of the topic.
func (p *ParsedTopic) FromPayload() bool {
	return p.SiteID == SentinelSiteID
}

// Parse matches the two accepted topic shapes:
//
//	{ns}/mqtt/loggers/{dataType}   current loggers, site id lives in the payload
//	{ns}/{siteId}/{dataType}       legacy devices that publish per site
//
// Any other shape returns nil and the message is discarded upstream.
func Parse(t string) *ParsedTopic {
	segments := strings.Split(t, "/")
	switch len(segments) {
	case 4:
		if segments[1] != SentinelSiteID || segments[2] != "loggers" {
			return nil
		}
		return &ParsedTopic{
			Namespace: segments[0],
			SiteID:    SentinelSiteID,
			DataType:  segments[3],
		}
	case 3:
		return &ParsedTopic{
			Namespace: segments[0],
			SiteID:    segments[1],
			DataType:  segments[2],
		}
	default:
		return nil
	}
}
