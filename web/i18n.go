package web

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the languages pages are translated to. The first one is
// the fallback.
var Supported = []language.Tag{language.English, language.Spanish}

var matcher = language.NewMatcher(Supported)

// spanish maps English message keys to their Spanish text. English text is
// the key itself.
var spanish = [][2]string{
	{"Home", "Inicio"},
	{"Create", "Crear"},
	{"Welcome to Voxara", "Bienvenido a Voxara"},
	{"Your session is active.", "Tu sesión está activa."},
	{"Sign in", "Iniciar sesión"},
	{"Sign out", "Cerrar sesión"},
	{"Email", "Correo electrónico"},
	{"Password", "Contraseña"},
	{"Invalid email or password.", "Correo o contraseña incorrectos."},
	{"Email and password are required.", "El correo y la contraseña son obligatorios."},
	{"Create a video", "Crear un video"},
	{"Transcript", "Guion"},
	{"Photo key", "Clave de la foto"},
	{"Voice key (optional)", "Clave de la voz (opcional)"},
	{"Voice sample URL (optional)", "URL de la muestra de voz (opcional)"},
	{"Use either a voice key or a voice sample URL.", "Usa una clave de voz o una URL de muestra, no ambas."},
	{"Voice sample import failed, please try again.", "La importación de la muestra de voz falló, inténtalo de nuevo."},
	{"Generate", "Generar"},
	{"Transcript and photo key are required.", "El guion y la clave de la foto son obligatorios."},
	{"Video generation failed, please try again.", "La generación del video falló, inténtalo de nuevo."},
	{"Video created: %s", "Video creado: %s"},
	{"Signed in as %s", "Sesión iniciada como %s"},
	{"Navigation", "Navegación"},
	{"Account", "Cuenta"},
	{"Photo to Video app, for the new generation", "App de foto a video, para la nueva generación"},
}

var messages = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(Supported[0]))
	for _, m := range spanish {
		b.SetString(language.English, m[0], m[0])
		b.SetString(language.Spanish, m[0], m[1])
	}
	return b
}

// Printer returns a message printer for the language that best matches the
// request's Accept-Language header, and that language.
func Printer(r *http.Request) (*message.Printer, language.Tag) {
	tag := Supported[0]
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				tag = Supported[idx]
			}
		}
	}
	return message.NewPrinter(tag, message.Catalog(messages)), tag
}
