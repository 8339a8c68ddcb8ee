package middlewares

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/gin-gonic/gin"

	"github.com/fillip-70-jackdaw/business-wisdom/utils"
	"github.com/fillip-70-jackdaw/business-wisdom/utils/flag"
)

var (
	// cognitoClient is a thread safe client that performs user authorization
	// based on jwt token. Before using this client, make sure it's initialized
	// correctly.
	cognitoClient *cognitoidentityprovider.Client
)

// Setup initialized all package scoped variables that are needed to perform
// middleware functionalities, such as Cognito client. This function must be
// called before any middleware is used.
func Setup() {
	if flag.ByPassAuth {
		return
	}
	client, err := createCognitoClient()
	if err != nil {
		// Abort directly if the Cognito isn't setup successfully, which is crucial
		// for server side authorization.
		log.Fatalf("fail to setup Cognito client: %s", err.Error())
	}
	setCognitoClient(client)
}

// createCognitoClient creates a default client with aws config located in path
// ~/.aws/config, and return error on error.
func createCognitoClient() (*cognitoidentityprovider.Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, err
	}
	return cognitoidentityprovider.NewFromConfig(cfg), nil
}

func setCognitoClient(client *cognitoidentityprovider.Client) {
	cognitoClient = client
}

// resolveSubject validates the jwt carried in the request and returns
// the subject id. With auth bypass on, the raw token is trusted as the
// subject, local development only.
func resolveSubject(c *gin.Context) (string, error) {
	jwt := c.Query("token")
	if jwt == "" {
		jwt = c.GetHeader("token")
	}
	if jwt == "" {
		return "", errEmptyToken
	}
	if flag.ByPassAuth {
		return jwt, nil
	}
	user, err := cognitoClient.GetUser(
		c.Request.Context(), &cognitoidentityprovider.GetUserInput{AccessToken: &jwt})
	if err != nil {
		return "", err
	}
	return *user.Username, nil
}

var errEmptyToken = &authError{"empty jwt token"}

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }

// JWT middleware fetch user jwt in the http header or query, looking
// for field "token". It then parse the JWT and add a new field "sub"
// stores user's id. It returns error on token not provided or token is
// invalid (wrong token or expired).
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := resolveSubject(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": utils.ErrorTokenAuthFail,
				"msg":  err.Error(),
			})
			c.Abort()
			return
		}

		// Successfully validated the jwt token, replace the header field "token"
		// with the user's sub (id).
		c.Request.Header.Del("token")
		c.Request.Header.Set("sub", sub)

		c.Next()
	}
}

// OptionalIdentity resolves the subject when a valid token is present
// but never rejects the request; anonymous callers proceed with no
// "sub" header set.
func OptionalIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Header.Del("sub")
		if sub, err := resolveSubject(c); err == nil {
			c.Request.Header.Set("sub", sub)
		}
		c.Next()
	}
}
