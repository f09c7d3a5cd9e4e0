package intent

// Handler names routed by the rule tables. The dispatcher executes the
// ones it knows; the rest are signaled back to the caller as external.
const (
	HandlerListarLeads       = "vendedorListarLeads"
	HandlerVerNotas          = "vendedorVerNotas"
	HandlerVerHistorial      = "vendedorVerHistorial"
	HandlerAgregarNota       = "vendedorAgregarNota"
	HandlerAvanzarEtapa      = "vendedorAvanzarEtapa"
	HandlerRetrocederEtapa   = "vendedorRetrocederEtapa"
	HandlerCambiarEtapa      = "vendedorCambiarEtapa"
	HandlerCitaCancelar      = "citaCancelar"
	HandlerCitaReagendar     = "citaReagendar"
	HandlerPedirDocs         = "asesorPedirDocs"
	HandlerResponderPregunta = "responderPregunta"

	// External-only handlers: recognized and routed by name, executed
	// by the surrounding system.
	HandlerEnviarBrochure       = "enviarBrochure"
	HandlerCrearLeadHipotecario = "crearLeadHipotecario"
	HandlerGenerarReporte       = "generarReporte"
	HandlerVerEquipo            = "ceoVerEquipo"
)

// Param keys.
const (
	ParamLead  = "nombreLead"
	ParamQuery = "query"
	ParamEtapa = "etapa"
	ParamTexto = "texto"
)

const saludo = "¡Hola! Escribe *ayuda* para ver lo que puedo hacer."

const vendorHelp = `No entendí ese mensaje. Puedo ayudarte con:
• *mis leads* — tus leads asignados
• *ver <nombre>* — historial de un lead
• *ver notas de <nombre>* — notas de un lead
• *nota <nombre>: <texto>* — agregar una nota
• *adelante <nombre>* / *atras <nombre>* — mover etapa
• *etapa <nombre> a <etapa>* — fijar etapa
• *cancelar cita <nombre>* / *reagendar cita <nombre>*
• *brochure <nombre>* — enviar brochure
• *responder <texto>* — contestar la pregunta pendiente`

const advisorHelp = `No entendí ese mensaje. Puedo ayudarte con:
• *mis solicitudes* — tus solicitudes de crédito
• *docs <nombre>* — pedir documentos a un lead
• *aprobar <nombre>* / *rechazar <nombre>*
• *ver notas de <nombre>* — notas de un lead
• *nota <nombre>: <texto>* — agregar una nota
• *responder <texto>* — contestar la pregunta pendiente`

const ceoHelp = vendorHelp + `
• *docs <nombre>* — pedir documentos a un lead
• *reporte* — reporte general
• *equipo* — resumen del equipo`

// leadOpsRules are the lead operations shared by every surface.
// Ordering inside this slice is load-bearing: "ver notas de X" must
// precede the generic "ver X" rule or the latter would swallow it.
func leadOpsRules() []Rule {
	return []Rule{
		{
			Name:  "saludo",
			Match: Exact("hola", "buenas", "buenos dias", "buenos días", "menu", "menú"),
			Build: func([]string) Intent { return ReplyIntent(saludo) },
		},
		{
			Name:  "verNotas",
			Match: Pattern(`ver notas de (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerVerNotas, map[string]string{ParamLead: c[1]})
			},
		},
		{
			Name:  "agregarNota",
			Match: Pattern(`nota ([^:]+):\s*(.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerAgregarNota, map[string]string{ParamLead: c[1], ParamTexto: c[2]})
			},
		},
		{
			Name:  "misLeads",
			Match: Exact("mis leads", "leads", "ver leads"),
			Build: func([]string) Intent { return InvokeIntent(HandlerListarLeads, nil) },
		},
		{
			Name:  "avanzarEtapa",
			Match: Pattern(`(?:adelante|avanzar) (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerAvanzarEtapa, map[string]string{ParamLead: c[1]})
			},
		},
		{
			Name:  "retrocederEtapa",
			Match: Pattern(`(?:atras|atrás|regresar) (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerRetrocederEtapa, map[string]string{ParamLead: c[1]})
			},
		},
		{
			Name:  "cambiarEtapa",
			Match: Pattern(`etapa (.+?) a (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerCambiarEtapa, map[string]string{ParamLead: c[1], ParamEtapa: c[2]})
			},
		},
		{
			Name:  "cancelarCita",
			Match: Pattern(`cancelar cita(?: de)? (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerCitaCancelar, map[string]string{ParamLead: c[1]})
			},
		},
		{
			Name:  "reagendarCita",
			Match: Pattern(`reagendar cita(?: de)? (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerCitaReagendar, map[string]string{ParamLead: c[1]})
			},
		},
		{
			Name:  "enviarBrochure",
			Match: Pattern(`brochure (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerEnviarBrochure, map[string]string{ParamLead: c[1]})
			},
		},
		{
			Name:  "responderPregunta",
			Match: Pattern(`responder (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerResponderPregunta, map[string]string{ParamTexto: c[1]})
			},
		},
		// Generic lead history view. Declared last among the "ver"
		// family so verNotas wins first.
		{
			Name:  "verHistorial",
			Match: Pattern(`ver (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerVerHistorial, map[string]string{ParamLead: c[1]})
			},
		},
	}
}

// advisorRules are the credit-desk operations. The admin surface gets
// them too: an admin can run any desk's commands.
func advisorRules() []Rule {
	return []Rule{
		{
			Name:  "pedirDocs",
			Match: Pattern(`docs (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerPedirDocs, map[string]string{ParamQuery: c[1]})
			},
		},
		{
			Name:  "misSolicitudes",
			Match: Exact("mis solicitudes", "solicitudes"),
			Build: func([]string) Intent { return InvokeIntent(HandlerListarLeads, nil) },
		},
		{
			Name:  "aprobar",
			Match: Pattern(`aprobar (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerCambiarEtapa, map[string]string{ParamLead: c[1], ParamEtapa: "pre_approved"})
			},
		},
		{
			Name:  "rechazar",
			Match: Pattern(`rechazar (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerCambiarEtapa, map[string]string{ParamLead: c[1], ParamEtapa: "rejected"})
			},
		},
		{
			Name:  "precalificar",
			Match: Pattern(`precalificar (.+)`),
			Build: func(c []string) Intent {
				return InvokeIntent(HandlerCrearLeadHipotecario, map[string]string{ParamQuery: c[1]})
			},
		},
	}
}

func ceoRules() []Rule {
	rules := []Rule{
		{
			Name:  "reporte",
			Match: Exact("reporte", "reportes", "reporte general"),
			Build: func([]string) Intent { return InvokeIntent(HandlerGenerarReporte, nil) },
		},
		{
			Name:  "equipo",
			Match: Exact("equipo", "mi equipo", "ver equipo"),
			Build: func([]string) Intent { return InvokeIntent(HandlerVerEquipo, nil) },
		},
	}
	return append(rules, advisorRules()...)
}

var vendorRouter = NewRouter(leadOpsRules(), vendorHelp)

var advisorRouter = NewRouter(append(advisorRules(), leadOpsRules()...), advisorHelp)

var ceoRouter = NewRouter(append(ceoRules(), leadOpsRules()...), ceoHelp)
