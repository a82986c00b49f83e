package lambda

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"lambdakit/pkg/logctx"
	"lambdakit/pkg/problem"
)

const (
	actionInvoke  = "execute-api:Invoke"
	policyVersion = "2012-10-17"

	// EffectAllow and EffectDeny are the two policy statement effects.
	EffectAllow = "Allow"
	EffectDeny  = "Deny"
)

var routeARNPattern = regexp.MustCompile(`^arn:aws:execute-api:([a-zA-Z0-9-]+):(\d+):([a-zA-Z0-9]+)/([^/]+)/([A-Z]+)/(.*)$`)

// RouteARN identifies one method route of a gateway deployment. AccountID
// stays a string: account numbers keep their leading zeros.
type RouteARN struct {
	Region       string
	AccountID    string
	APIID        string
	Stage        string
	Method       string
	ResourcePath string
}

// ParseRouteARN parses a method ARN of the form
// arn:aws:execute-api:{region}:{account}:{apiID}/{stage}/{METHOD}/{path}.
func ParseRouteARN(arn string) (RouteARN, error) {
	m := routeARNPattern.FindStringSubmatch(arn)
	if m == nil {
		return RouteARN{}, fmt.Errorf("invalid route ARN: %q", arn)
	}
	return RouteARN{
		Region:       m[1],
		AccountID:    m[2],
		APIID:        m[3],
		Stage:        m[4],
		Method:       m[5],
		ResourcePath: m[6],
	}, nil
}

// String reassembles the method ARN.
func (r RouteARN) String() string {
	return fmt.Sprintf("arn:aws:execute-api:%s:%s:%s/%s/%s/%s",
		r.Region, r.AccountID, r.APIID, r.Stage, r.Method, r.ResourcePath)
}

// Wildcard returns a copy covering every method and path in the route's
// stage, for policies that should be cacheable across routes.
func (r RouteARN) Wildcard() RouteARN {
	r.Method = "*"
	r.ResourcePath = "*"
	return r
}

// Policy builds a single-statement authorizer response for the given
// principal, effect, and resource. The context values are forwarded to the
// backend integration on allowed requests.
func Policy(principalID, effect string, route RouteARN, authContext map[string]string) events.APIGatewayCustomAuthorizerResponse {
	resp := events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: principalID,
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: policyVersion,
			Statement: []events.IAMPolicyStatement{{
				Action:   []string{actionInvoke},
				Effect:   effect,
				Resource: []string{route.String()},
			}},
		},
	}
	if len(authContext) > 0 {
		resp.Context = make(map[string]interface{}, len(authContext))
		for k, v := range authContext {
			resp.Context[k] = v
		}
	}
	return resp
}

// TokenValidator checks a bearer token and returns the principal it
// authenticates plus context values forwarded to the backend. Returning an
// error wrapping problem.ErrUnauthorized denies the request.
type TokenValidator func(ctx context.Context, token string) (principalID string, authContext map[string]string, err error)

// NewAuthorizer composes the token authorizer pipeline: parse the method
// ARN, validate the bearer token, and allow the requested route. A failed
// validation surfaces the platform's 401 contract (an error whose message
// is exactly "Unauthorized"); any other failure leaves the invocation
// broken so the gateway answers 500. The token itself never reaches the
// logs.
func NewAuthorizer(validate TokenValidator) func(context.Context, events.APIGatewayCustomAuthorizerRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	inner := func(ctx context.Context, req events.APIGatewayCustomAuthorizerRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
		route, err := ParseRouteARN(req.MethodArn)
		if err != nil {
			return events.APIGatewayCustomAuthorizerResponse{}, err
		}
		ctx = logctx.Bind(ctx, logrus.Fields{"route": route.String()})

		principalID, authContext, err := validate(ctx, stripBearer(req.AuthorizationToken))
		if err != nil {
			if errors.Is(err, problem.ErrUnauthorized) {
				logctx.Logger(ctx).WithError(err).Warn("token rejected")
				return events.APIGatewayCustomAuthorizerResponse{}, problem.ErrUnauthorized
			}
			return events.APIGatewayCustomAuthorizerResponse{}, err
		}

		return Policy(principalID, EffectAllow, route, authContext), nil
	}

	wrapped := logctx.Wrap(inner, logctx.CallConfig[events.APIGatewayCustomAuthorizerResponse]{
		Level:    logrus.DebugLevel,
		Message:  "authorize",
		Exclude:  []string{"context", "event"},
		Identity: logctx.Identify(validate),
		ResultExtractor: func(out events.APIGatewayCustomAuthorizerResponse) logrus.Fields {
			return logrus.Fields{"principal_id": out.PrincipalID}
		},
	})

	return func(ctx context.Context, req events.APIGatewayCustomAuthorizerRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
		return wrapped(logctx.Bind(ctx, invocationFields(ctx)), req)
	}
}

func stripBearer(token string) string {
	return strings.TrimPrefix(token, "Bearer ")
}
