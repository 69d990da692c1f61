package dian

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

const (
	AppEnvTest = "test"
	AppEnvProd = "prod"
	// AppEnvDev no envía al WS DIAN.
	AppEnvDev = "dev"

	soapURLTest = "https://vpfe-hab.dian.gov.co/WcfDianCustomerServices.svc"
	soapURLProd = "https://vpfe.dian.gov.co/WcfDianCustomerServices.svc"

	soapNS         = "http://schemas.xmlsoap.org/soap/envelope/"
	soapNSTempuri  = "http://tempuri.org/"
	soapActionBase = "http://tempuri.org/IWcfDianCustomerServices/"
)

// SubmitResult resultado de la entrega al WS DIAN.
type SubmitResult struct {
	TrackID  string // ZipKey devuelto por SendBillAsync / SendTestSetAsync
	Accepted bool   // true si la DIAN aceptó el documento (HasErrors == false)
	Errors   string // mensajes de error/rechazo de la DIAN (puede ser vacío)
}

// DIANSubmitter entrega el ZIP al WS DIAN. env es "test" o "prod".
type DIANSubmitter interface {
	SubmitZip(ctx context.Context, zipBytes []byte, filename, env string) (*SubmitResult, error)
}

// SOAPDIANClient implementa DIANSubmitter sobre el WS SOAP de la DIAN.
type SOAPDIANClient struct {
	httpClient *http.Client
	urls       map[string]string
	log        zerolog.Logger
}

// NewSOAPDIANClient el timeout lo define el http.Client recibido.
func NewSOAPDIANClient(httpClient *http.Client, log zerolog.Logger) *SOAPDIANClient {
	return &SOAPDIANClient{
		httpClient: httpClient,
		urls:       map[string]string{AppEnvTest: soapURLTest, AppEnvProd: soapURLProd},
		log:        log.With().Str("component", "dian_soap").Logger(),
	}
}

// WithEndpoint reemplaza la URL de un entorno.
func (c *SOAPDIANClient) WithEndpoint(env, url string) *SOAPDIANClient {
	c.urls[env] = url
	return c
}

type soapEnvelope struct {
	XMLName xml.Name   `xml:"s:Envelope"`
	XmlnsS  string     `xml:"xmlns:s,attr"`
	XmlnsA  string     `xml:"xmlns:a,attr,omitempty"`
	Header  soapHeader `xml:"s:Header"`
	Body    soapBody   `xml:"s:Body"`
}

type soapHeader struct{}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "s:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// sendBillAsyncBody cuerpo para la operación SendBillAsync (producción).
type sendBillAsyncBody struct {
	XMLName     xml.Name `xml:"SendBillAsync"`
	Xmlns       string   `xml:"xmlns,attr"`
	FileName    string   `xml:"fileName"`
	ContentFile string   `xml:"contentFile"` // ZIP en Base64
}

// sendTestSetAsyncBody cuerpo para la operación SendTestSetAsync (habilitación).
type sendTestSetAsyncBody struct {
	XMLName     xml.Name `xml:"SendTestSetAsync"`
	Xmlns       string   `xml:"xmlns,attr"`
	FileName    string   `xml:"fileName"`
	ContentFile string   `xml:"contentFile"` // ZIP en Base64
	TestSetID   string   `xml:"testSetId"`   // ID del set de pruebas DIAN (se puede dejar vacío)
}

type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	SendBillResponse    *sendBillAsyncResponse    `xml:"SendBillAsyncResponse"`
	SendTestSetResponse *sendTestSetAsyncResponse `xml:"SendTestSetAsyncResponse"`
	Fault               *soapFault                `xml:"Fault"`
}

type sendBillAsyncResponse struct {
	Result sendBillAsyncResult `xml:"SendBillAsyncResult"`
}

type sendTestSetAsyncResponse struct {
	Result sendBillAsyncResult `xml:"SendTestSetAsyncResult"`
}

type sendBillAsyncResult struct {
	HasErrors        bool     `xml:"HasErrors"`
	ErrorMessageList []string `xml:"ErrorMessageList>string"`
	ZipKey           string   `xml:"ZipKey"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// SubmitZip SendBillAsync en producción, SendTestSetAsync en habilitación.
func (c *SOAPDIANClient) SubmitZip(ctx context.Context, zipBytes []byte, filename, env string) (*SubmitResult, error) {
	soapURL, soapAction, body, err := c.buildRequest(zipBytes, filename, env)
	if err != nil {
		return nil, err
	}

	envelope := soapEnvelope{
		XmlnsS: soapNS,
		Body:   soapBody{Content: body},
	}

	xmlPayload, err := xml.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, soapURL,
		bytes.NewReader(xmlPayload))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", soapAction)

	c.log.Debug().Str("file", filename).Str("env", env).Int("bytes", len(zipBytes)).Msg("enviando documento a la DIAN")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("soap: leer respuesta: %w", err)
	}
	// 5xx sin Fault es falla del servicio, no rechazo del documento
	if resp.StatusCode >= 500 && !bytes.Contains(rawBody, []byte("Fault")) {
		return nil, fmt.Errorf("soap: la DIAN respondió %d", resp.StatusCode)
	}

	return c.parseResponse(rawBody, env)
}

func (c *SOAPDIANClient) buildRequest(zipBytes []byte, filename, env string) (url, action string, body interface{}, err error) {
	b64Content := base64.StdEncoding.EncodeToString(zipBytes)

	switch env {
	case AppEnvProd:
		url = c.urls[AppEnvProd]
		action = soapActionBase + "SendBillAsync"
		body = &sendBillAsyncBody{
			Xmlns:       soapNSTempuri,
			FileName:    filename,
			ContentFile: b64Content,
		}
	case AppEnvTest:
		url = c.urls[AppEnvTest]
		action = soapActionBase + "SendTestSetAsync"
		body = &sendTestSetAsyncBody{
			Xmlns:       soapNSTempuri,
			FileName:    filename,
			ContentFile: b64Content,
			TestSetID:   "",
		}
	default:
		return "", "", nil, fmt.Errorf("soap: entorno desconocido %q (usar 'test' o 'prod')", env)
	}
	return url, action, body, nil
}

// parseResponse un XML ilegible o un Fault se reportan como rechazo, no como error.
func (c *SOAPDIANClient) parseResponse(rawBody []byte, env string) (*SubmitResult, error) {
	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(rawBody, &envResp); err != nil {
		return &SubmitResult{
			Accepted: false,
			Errors:   fmt.Sprintf("no se pudo parsear respuesta SOAP: %s", string(rawBody)),
		}, nil
	}

	if envResp.Body.Fault != nil {
		return &SubmitResult{
			Accepted: false,
			Errors:   fmt.Sprintf("SOAP Fault [%s]: %s", envResp.Body.Fault.FaultCode, envResp.Body.Fault.FaultString),
		}, nil
	}

	var result *sendBillAsyncResult
	if env == AppEnvProd && envResp.Body.SendBillResponse != nil {
		result = &envResp.Body.SendBillResponse.Result
	} else if env == AppEnvTest && envResp.Body.SendTestSetResponse != nil {
		result = &envResp.Body.SendTestSetResponse.Result
	}

	if result == nil {
		return &SubmitResult{
			Accepted: false,
			Errors:   "respuesta SOAP vacía o inesperada: " + string(rawBody),
		}, nil
	}

	errMsg := strings.Join(result.ErrorMessageList, "; ")
	return &SubmitResult{
		TrackID:  result.ZipKey,
		Accepted: !result.HasErrors,
		Errors:   errMsg,
	}, nil
}
