// Package register announces an application's HTTP routes to the admin
// so that matching selectors and rules are created for it.
//
// Every endpoint is POSTed as one JSON document to
// AdminURL + "/soul-client/springmvc-register". Transient failures are
// retried with exponential backoff; a 4xx answer is final.
package register
