package mqtt

import "strings"

// DeviceIDFromTopic extracts the trailing device identifier from an
// inbound topic of the form <prefix>/<device_id>. An empty string means
// the topic carries no extractable identifier.
func DeviceIDFromTopic(topic string) string {
	topic = strings.TrimSuffix(topic, "/")
	if i := strings.LastIndex(topic, "/"); i >= 0 {
		return topic[i+1:]
	}
	return ""
}

// OutboundTopic substitutes the device identifier into the configured
// outbound topic template. Templates without a "{device}" placeholder are
// used verbatim.
func OutboundTopic(template, deviceID string) string {
	return strings.ReplaceAll(template, "{device}", deviceID)
}
