package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The form is not wired to any authentication; it is a placeholder page.
const loginHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width,initial-scale=1" />
    <title>PromoHub - Sign in</title>
    <style>
      body { margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center; background: #f1f5f9; font-family: system-ui, sans-serif; }
      form { background: #fff; padding: 2rem; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,.1); width: 320px; }
      h1 { margin: 0 0 1.5rem; font-size: 1.4rem; text-align: center; }
      label { display: block; margin-bottom: .25rem; font-size: .9rem; color: #334155; }
      input { width: 100%; box-sizing: border-box; padding: .5rem; margin-bottom: 1rem; border: 1px solid #cbd5e1; border-radius: 4px; }
      button { width: 100%; padding: .6rem; border: 0; border-radius: 4px; background: #2563eb; color: #fff; font-size: 1rem; }
    </style>
  </head>
  <body>
    <form>
      <h1>Sign in</h1>
      <label for="email">Email</label>
      <input id="email" name="email" type="email" autocomplete="username" required />
      <label for="password">Password</label>
      <input id="password" name="password" type="password" autocomplete="current-password" required />
      <button type="button">Sign in</button>
    </form>
  </body>
</html>`

func LoginPage(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginHTML))
}
