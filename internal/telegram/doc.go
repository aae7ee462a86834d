// Package telegram talks to the Telegram Bot API.
//
// Client wraps the handful of Bot API methods reelpost needs and throttles
// outgoing requests with a token bucket. Publisher creates and edits the
// destination-channel post, degrading from a photo post to a text post when
// the photo cannot be sent. Poller long-polls getUpdates and reports media
// uploads from the source channel.
package telegram
