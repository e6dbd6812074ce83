// Package webui serves the embedded browser front end of the gateway.
//
// Routes registered by RegisterRoutes:
//
//   - GET /          - the single-page document exchange UI
//   - GET /static/   - JavaScript and CSS assets
//   - GET /help      - usage help rendered from embedded Markdown with goldmark
//
// The page talks to the gateway only through the public /api endpoints, so it
// follows the same mode table, validation rules and rendering as the terminal
// console in internal/console.
package webui
