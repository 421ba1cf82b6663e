package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-companion-be/internal/entity"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type stubClassifier struct {
	route string
	err   error
	calls int
}

func (s *stubClassifier) Classify(context.Context, string) (string, error) {
	s.calls++
	return s.route, s.err
}

func TestRoutePrecedence(t *testing.T) {
	cases := []struct {
		name      string
		query     string
		mode      string
		preferred string
		classify  string
		want      string
	}{
		{"both named wins over preference", "mentor and muse, weigh in", "", "mentor", "", RouteDiscussion},
		{"both named wins over mode override", "mentor and muse, weigh in", "muse", "", "", RouteDiscussion},
		{"mentor named", "mentor, how do I plan this?", "", entity.PreferredAgentAuto, "", RouteMentor},
		{"muse named", "muse, riff on this idea", "", entity.PreferredAgentAuto, "", RouteMuse},
		{"mode override wins over preference", "how do I plan this?", "muse", "mentor", "", RouteMuse},
		{"mode override forces discussion", "how do I plan this?", "discussion", "mentor", "", RouteDiscussion},
		{"auto mode falls through to preference", "how do I plan this?", entity.PreferredAgentAuto, "mentor", "", RouteMentor},
		{"unknown mode falls through", "how do I plan this?", "oracle", "muse", "", RouteMuse},
		{"preference wins without mention", "how do I plan this?", "", "muse", "", RouteMuse},
		{"classifier used under auto", "how do I plan this?", "", entity.PreferredAgentAuto, "mentor", RouteMentor},
		{"auto without classifier defaults to discussion", "hello there", "", entity.PreferredAgentAuto, "", RouteDiscussion},
		{"unknown preference falls through", "hello there", "", "oracle", "", RouteDiscussion},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c Classifier
			if tc.classify != "" {
				c = &stubClassifier{route: tc.classify}
			}
			r := New(c, noopLogger{})
			got := r.Route(context.Background(), tc.query, tc.mode, tc.preferred)
			assert.Equal(t, tc.want, got.Route)
		})
	}
}

func TestRouteClassifierFailureDefaultsToDiscussion(t *testing.T) {
	c := &stubClassifier{err: errors.New("model down")}
	r := New(c, noopLogger{})

	got := r.Route(context.Background(), "an ambiguous question", "", entity.PreferredAgentAuto)

	assert.Equal(t, RouteDiscussion, got.Route)
	assert.Equal(t, 1, c.calls)
}

func TestRouteClassifierUnknownRouteDefaults(t *testing.T) {
	c := &stubClassifier{route: "philosopher"}
	r := New(c, noopLogger{})

	got := r.Route(context.Background(), "an ambiguous question", "", entity.PreferredAgentAuto)

	assert.Equal(t, RouteDiscussion, got.Route)
}

func TestRouteExplicitMentionSkipsClassifier(t *testing.T) {
	c := &stubClassifier{route: "muse"}
	r := New(c, noopLogger{})

	got := r.Route(context.Background(), "mentor, help me", "", entity.PreferredAgentAuto)

	assert.Equal(t, RouteMentor, got.Route)
	assert.Zero(t, c.calls)
}
