package backendauth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
)

// awsHandler implements Handler for SchemeAWSSigV4, the scheme Bedrock's
// Converse and converse-stream endpoints require.
type awsHandler struct {
	credentialsProvider aws.CredentialsProvider
	signer              *v4.Signer
	region              string
}

func newAWSHandler(ctx context.Context, cfg Config) (Handler, error) {
	if cfg.AWSRegion == "" {
		return nil, fmt.Errorf("backendauth: aws_sigv4 scheme requires a region")
	}

	var awsCfg aws.Config
	var err error
	if cfg.AWSCredentialFileLiteral != "" {
		var tmpfile *os.File
		tmpfile, err = os.CreateTemp("", "aws-credentials")
		if err != nil {
			return nil, fmt.Errorf("cannot create temp file for AWS credentials: %w", err)
		}
		defer func() { _ = os.Remove(tmpfile.Name()) }()
		if _, err = tmpfile.WriteString(cfg.AWSCredentialFileLiteral); err != nil {
			return nil, fmt.Errorf("cannot write AWS credentials to temp file: %w", err)
		}
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithSharedCredentialsFiles([]string{tmpfile.Name()}),
			config.WithRegion(cfg.AWSRegion))
	} else {
		// Default credential chain: env vars, shared config, IRSA/EKS pod
		// identity, instance role, in that order.
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AWSRegion))
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load AWS config: %w", err)
	}

	return &awsHandler{credentialsProvider: awsCfg.Credentials, signer: v4.NewSigner(), region: cfg.AWSRegion}, nil
}

// Do implements Handler. It builds a throwaway *http.Request purely as a
// vehicle for the SigV4 signer, then extracts the Authorization and
// X-Amz-* headers the signer computed back onto requestHeaders.
func (h *awsHandler) Do(ctx context.Context, method, path string, requestHeaders map[string]string, body []byte) ([]Header, error) {
	delete(requestHeaders, "authorization") // the SigV4 signature below is the only valid Authorization for this request
	payloadHash := sha256.Sum256(body)
	req, err := http.NewRequest(method,
		fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com%s", h.region, path),
		bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cannot create request for signing: %w", err)
	}
	// -1 keeps Content-Length out of the signed headers.
	req.ContentLength = -1

	credentials, err := h.credentialsProvider.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot retrieve AWS credentials: %w", err)
	}

	if err := h.signer.SignHTTP(ctx, credentials, req, hex.EncodeToString(payloadHash[:]), "bedrock", h.region, time.Now()); err != nil {
		return nil, fmt.Errorf("cannot sign request: %w", err)
	}

	var headers []Header
	for key, vals := range req.Header {
		if key == "Authorization" || strings.HasPrefix(key, "X-Amz-") {
			headers = append(headers, Header{Name: key, Value: vals[0]})
			requestHeaders[key] = vals[0]
		}
	}
	return headers, nil
}
