// Package armorhttp exposes armor.Don and armor.Doff over HTTP, for parties that would rather not embed the library.
//
// Requests and responses are JSON. Binary data is carried as standard base64.
//
//	POST /don   {"data": "VGVzdCBkYXRhIQ==", "limit": 280, "date": "2024-05-01"}  ->  {"messages": ["..."]}
//	POST /doff  {"messages": ["..."], "date": "2024-05-01"}                        ->  {"data": "VGVzdCBkYXRhIQ=="}
//
// The date is optional and defaults to the current date in UTC.
package armorhttp
