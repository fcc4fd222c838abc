// Package lib holds integrations that do not belong to a single layer:
// background job processing (Asynq over Redis) and the Resend email client.
package lib
