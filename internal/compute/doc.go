// Package compute provides an HTTP client for OpenStack-compatible compute
// and block storage APIs.
//
// This package implements the slice of the APIs the suite exercises: server
// lifecycle operations (create, resize, suspend, shelve, live migration),
// serial console URL retrieval, bootable volume creation, and the status
// waiters the checks are built on. Authentication is a pre-provisioned token
// sent as X-Auth-Token; the suite never talks to an identity service.
//
// # Usage Example
//
//	client := compute.NewClient("http://controller:8774/v2.1", token)
//
//	server, err := client.CreateServer(ctx, &compute.CreateServerRequest{
//	    Name:      "novacheck-instance-1a2b3c4d",
//	    ImageRef:  imageRef,
//	    FlavorRef: flavorRef,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.WaitForServerStatus(ctx, server.ID, compute.StatusActive, 0); err != nil {
//	    log.Fatal(err)
//	}
//
// # Pacing and Retries
//
// Requests pass through a token-bucket limiter so a fast waiter loop cannot
// hammer the API. Transport failures and 5xx responses are retried with
// exponential backoff; 4xx responses are returned immediately.
//
// # Error Handling
//
// API failures come back as *APIError with the HTTP status and the message
// extracted from the error document. IsBadRequest, IsNotFound and IsConflict
// inspect status codes through the error chain. Waiters return
// *WaitTimeoutError when the budget runs out and *ServerFaultError when the
// server lands in ERROR.
//
// # Provisioning
//
// Provisioner bundles the create-server conventions the checks share:
// validation resources, volume-backed boot, multi-create, wait-and-cleanup.
// See CreateTestServer.
package compute
