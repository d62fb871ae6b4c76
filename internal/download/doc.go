// Package download turns the download handles providers return into bytes.
//
// Handles come in four shapes: an in-memory Buffer, an authenticated
// Request fetched with retries, a Func streaming the document, and a Saver
// that writes the document to a path (read back and removed afterwards).
// The Materializer resolves any of them and validates the result; the Cache
// keeps materialised bytes resident for the session.
package download
