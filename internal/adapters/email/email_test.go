package email

import (
	"context"
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("Hi **Ana**,\nyour plan starts on 2026-02-01.\n\n<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if !strings.Contains(html, "<strong>Ana</strong>") {
		t.Errorf("missing bold: %s", html)
	}
	if !strings.Contains(html, "<br") {
		t.Errorf("hard wraps should become <br>: %s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("raw HTML must not pass through: %s", html)
	}
}

func TestNoopSender_RecordsRequests(t *testing.T) {
	s := NewNoopSender()
	results, err := s.SendBatch(context.Background(), []SendRequest{
		{To: []string{"a@gym.test"}, Subject: "one"},
		{To: []string{"b@gym.test"}, Subject: "two"},
	})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if len(results) != 2 || results[0].MessageID == results[1].MessageID {
		t.Errorf("results = %+v", results)
	}
	sent := s.Sent()
	if len(sent) != 2 || sent[1].Subject != "two" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestResendSender_Params(t *testing.T) {
	s := NewResendSender("re_test", "Dashboard <noreply@gym.test>")
	p := s.params(SendRequest{To: []string{"a@gym.test"}, Subject: "s", HTML: "<p>x</p>"})
	if p.From != "Dashboard <noreply@gym.test>" || p.Html != "<p>x</p>" {
		t.Errorf("params = %+v", p)
	}
	p = s.params(SendRequest{From: "Coach <c@gym.test>", ReplyTo: "c@gym.test"})
	if p.From != "Coach <c@gym.test>" || p.ReplyTo != "c@gym.test" {
		t.Errorf("params = %+v", p)
	}
}

var (
	_ Sender = (*ResendSender)(nil)
	_ Sender = (*NoopSender)(nil)
)
