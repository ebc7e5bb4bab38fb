package cloudevents

import (
	"time"
)

// SourcePicking identifies events emitted by the picking orchestrator
const SourcePicking = "/wms/picking-orchestrator"

// SpecVersion is the CloudEvents version produced by this package
const SpecVersion = "1.0"

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string    `json:"specversion"`
	Type            string    `json:"type"`
	Source          string    `json:"source"`
	Subject         string    `json:"subject,omitempty"`
	ID              string    `json:"id"`
	Time            time.Time `json:"time"`
	DataContentType string    `json:"datacontenttype"`
	Data            any       `json:"data"`

	// WMS extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WaveNumber    string `json:"wmswavenumber,omitempty"`
	WorkflowID    string `json:"wmsworkflowid,omitempty"`

	// W3C trace context
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// Headers returns the binary-mode ce-* transport headers of the event.
// Empty extensions are omitted.
func (e *WMSCloudEvent) Headers() []Header {
	headers := []Header{
		{Key: "ce-specversion", Value: e.SpecVersion},
		{Key: "ce-type", Value: e.Type},
		{Key: "ce-source", Value: e.Source},
		{Key: "ce-id", Value: e.ID},
		{Key: "ce-time", Value: e.Time.Format(time.RFC3339)},
		{Key: "content-type", Value: e.DataContentType},
	}

	optional := []Header{
		{Key: "ce-subject", Value: e.Subject},
		{Key: "ce-wmscorrelationid", Value: e.CorrelationID},
		{Key: "ce-wmswavenumber", Value: e.WaveNumber},
		{Key: "ce-wmsworkflowid", Value: e.WorkflowID},
		{Key: "ce-traceparent", Value: e.TraceParent},
		{Key: "ce-tracestate", Value: e.TraceState},
	}
	for _, h := range optional {
		if h.Value != "" {
			headers = append(headers, h)
		}
	}
	return headers
}

// Header is a single transport header
type Header struct {
	Key   string
	Value string
}
