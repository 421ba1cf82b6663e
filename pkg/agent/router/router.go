// Package router decides which persona answers a turn.
package router

import (
	"context"
	"strings"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
)

const (
	RouteMentor     = "mentor"
	RouteMuse       = "muse"
	RouteDiscussion = "discussion"
)

// Decision is the routing outcome with the rule that produced it.
type Decision struct {
	Route  string
	Reason string
}

// Classifier is an optional model-backed intent classifier. It must return
// one of the route constants; anything else falls back to keyword rules.
type Classifier interface {
	Classify(ctx context.Context, query string) (string, error)
}

// Router applies a fixed precedence: an explicit mention in the query wins,
// then the caller's per-turn mode override, then the user's stored
// preference, then the classifier, then discussion.
type Router struct {
	classifier Classifier
	log        logger.ILogger
}

func New(classifier Classifier, log logger.ILogger) *Router {
	return &Router{classifier: classifier, log: log}
}

func (r *Router) Route(ctx context.Context, query, mode, preferred string) Decision {
	lower := strings.ToLower(query)
	wantsMentor := strings.Contains(lower, "mentor")
	wantsMuse := strings.Contains(lower, "muse")

	switch {
	case wantsMentor && wantsMuse:
		return Decision{Route: RouteDiscussion, Reason: "both personas named in query"}
	case wantsMentor:
		return Decision{Route: RouteMentor, Reason: "mentor named in query"}
	case wantsMuse:
		return Decision{Route: RouteMuse, Reason: "muse named in query"}
	}

	switch mode {
	case RouteMentor, RouteMuse, RouteDiscussion:
		return Decision{Route: mode, Reason: "caller mode override"}
	case entity.PreferredAgentAuto, "":
		// fall through to the stored preference
	default:
		r.log.Warn("router", "unknown mode override, ignoring", map[string]interface{}{
			"mode": mode,
		})
	}

	switch preferred {
	case RouteMentor, RouteMuse, RouteDiscussion:
		return Decision{Route: preferred, Reason: "user preference"}
	case entity.PreferredAgentAuto, "":
		// fall through to the classifier
	default:
		r.log.Warn("router", "unknown preferred agent, ignoring", map[string]interface{}{
			"preferred": preferred,
		})
	}

	if r.classifier != nil {
		route, err := r.classifier.Classify(ctx, query)
		if err != nil {
			r.log.Warn("router", "classifier failed, defaulting to discussion", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			switch route {
			case RouteMentor, RouteMuse, RouteDiscussion:
				return Decision{Route: route, Reason: "classifier"}
			default:
				r.log.Warn("router", "classifier returned unknown route", map[string]interface{}{
					"route": route,
				})
			}
		}
	}

	return Decision{Route: RouteDiscussion, Reason: "default"}
}
