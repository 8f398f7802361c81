package provider

import (
	"bytes"
	"encoding/xml"
	"net/http"
	"strings"
)

// CMTelecom posts an XML MESSAGES document. An empty 200 response is
// success; the message tag then identifies the message.
type CMTelecom struct {
	httpAdapter
}

func NewCMTelecom(deps Deps) Adapter {
	return &CMTelecom{httpAdapter: newHTTPAdapter("cmtelecom", deps)}
}

func (c *CMTelecom) BuildRequest(sc SendContext) ([]*PreparedRequest, error) {
	text := sc.Text
	if sig, ok := ConfigValue(sc.Params, "SIGNATURE"); ok && sig != "" {
		text = "【" + sig + "】" + text
	}
	if grouping, ok := ConfigValue(sc.Params, "CUSTOMGROUPING"); ok && grouping == "Marketing" {
		text += " 回T退订"
	}
	xsc := sc
	xsc.Text = text
	xsc.MobileNumber = "00" + sc.MobileNumber

	body, err := c.buildXML(xsc)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Content-Type", "application/xml")
	return []*PreparedRequest{{
		Method: http.MethodPost,
		URL:    strings.TrimRight(sc.APIURL, "?&"),
		Body:   body,
		Header: header,
		Part:   1,
	}}, nil
}

func (c *CMTelecom) buildXML(sc SendContext) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0"?>`)
	enc := xml.NewEncoder(&buf)

	root := xml.StartElement{Name: xml.Name{Local: "MESSAGES"}}
	auth := xml.StartElement{Name: xml.Name{Local: "AUTHENTICATION"}}
	msg := xml.StartElement{Name: xml.Name{Local: "MSG"}}

	var tokenParam *QueryParam
	var msgParams []QueryParam
	for _, p := range BodyParams(sc) {
		key := strings.ToUpper(p.Key)
		switch key {
		case "SIGNATURE", "CUSTOMGROUPING":
			continue
		case "PRODUCTTOKEN":
			tp := QueryParam{Key: key, Value: p.Value}
			tokenParam = &tp
		default:
			msgParams = append(msgParams, QueryParam{Key: key, Value: p.Value})
		}
	}

	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(auth); err != nil {
		return nil, err
	}
	if tokenParam != nil {
		if err := enc.EncodeElement(tokenParam.Value, xml.StartElement{Name: xml.Name{Local: tokenParam.Key}}); err != nil {
			return nil, err
		}
	}
	if err := enc.EncodeToken(auth.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(msg); err != nil {
		return nil, err
	}
	for _, p := range msgParams {
		if err := enc.EncodeElement(p.Value, xml.StartElement{Name: xml.Name{Local: p.Key}}); err != nil {
			return nil, err
		}
	}
	if err := enc.EncodeToken(msg.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *CMTelecom) ParseResponse(sc SendContext, resp *RawResponse) ParsedResult {
	if resp == nil {
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	body := strings.TrimSpace(resp.Body)
	if resp.StatusCode == http.StatusOK && body == "" {
		return Success(sc.MobileNumber, sc.MessageTag)
	}
	if body == "" {
		return Failure(sc.MobileNumber, ResponseInvalid)
	}
	return Failure(sc.MobileNumber, body)
}
