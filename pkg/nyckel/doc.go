// Package nyckel defines the public types, interfaces, and errors of the
// Nyckel API client.
//
// Nyckel is a hosted machine-learning classification and tagging service.
// This package models its resources (functions, labels, fields, samples) and
// declares the Client interface. To build a working client, use
// github.com/nyckel/nyckel-go/pkg/nyckelclient:
//
//	creds := &nyckel.Config{ClientID: "...", ClientSecret: "..."}
//	client, err := nyckelclient.New(creds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fn, err := client.Functions().Create(ctx, "IsToxic", nyckel.InputText, nyckel.OutputClassification)
//
// Sample payloads are a sealed set of types, one per input modality:
// TextData, ImageData, and TabularData. Image payloads may reference a URL,
// a local file path, or a data URI; they are resized and re-encoded
// client-side before upload.
package nyckel
