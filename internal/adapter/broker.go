package adapter

// Broker is a home broker platform operator.
type Broker struct {
	ID   int
	Name string
	Page string
}

var brokers = []Broker{
	{ID: 12, Name: "Buenos Aires Valores S.A.", Page: "https://operarhb.bavsa.com"},
	{ID: 20, Name: "Proficio Investment S.A.", Page: "https://newsystem.proficioinvestment.com.ar"},
	{ID: 81, Name: "Tomar Inversiones S.A", Page: "https://clientes2.tminversiones.com.ar"},
	{ID: 88, Name: "Bell Investments S.A.", Page: "https://operar.bellbursatil.com"},
	{ID: 127, Name: "Maestro y Huerres S.A", Page: "https://operar.maestroyhuerres.com"},
	{ID: 153, Name: "Bolsa de Comercio del Chaco", Page: "https://clientes.bcch.org.ar"},
	{ID: 163, Name: "Prosecurities S.A.", Page: "http://operar.psec.com.ar"},
	{ID: 186, Name: "Servente y Cia. S.A.", Page: "http://clientes.serventeycia.com"},
	{ID: 201, Name: "Alfy Inversiones S.A.", Page: "https://acceso.alfyinversiones.com.ar"},
	{ID: 203, Name: "Invertir en Bolsa S.A.", Page: "https://clientesv2.invertirenbolsa.com.ar"},
	{ID: 209, Name: "Futuro Bursátil S.A.", Page: "https://homebroker.futurobursatil.com.ar"},
	{ID: 233, Name: "Sailing S.A.", Page: "https://login.sailinginversiones.com"},
	{ID: 265, Name: "Negocios Financieros y Bursátiles S.A. (Cocos Capital)", Page: "https://cocoscap.com"},
}

// BrokerByID looks a broker up in the registry.
func BrokerByID(id int) (Broker, bool) {
	for _, b := range brokers {
		if b.ID == id {
			return b, true
		}
	}
	return Broker{}, false
}

// Brokers returns a copy of the registry.
func Brokers() []Broker {
	out := make([]Broker, len(brokers))
	copy(out, brokers)
	return out
}
