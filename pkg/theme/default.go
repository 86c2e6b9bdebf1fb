package theme

// defaultThemeJSON is the built-in light theme
const defaultThemeJSON = `{
  "palette": {
    "type": "light",
    "background": {
      "default": "#efefef",
      "paper": "#ffffff"
    },
    "primary": {
      "main": "#15b8cf"
    },
    "secondary": {
      "main": "#ff9800"
    }
  },
  "typography": {
    "fontFamily": "\"Open Sans\", \"Helvetica\", \"Arial\", sans-serif",
    "fontSize": 12
  },
  "custom": {
    "title": {
      "prefix": "[Devportal]",
      "sufix": "- Developer Portal"
    },
    "tenantCustomCss": "",
    "appBar": {
      "logo": "/site/public/images/logo.svg",
      "background": "#1d344f"
    },
    "footer": {
      "active": true,
      "text": ""
    }
  }
}`

// Builtin returns the built-in default theme
func Builtin() *Theme {
	t, err := Parse([]byte(defaultThemeJSON))
	if err != nil {
		panic("theme: invalid built-in default theme: " + err.Error())
	}
	return t
}
