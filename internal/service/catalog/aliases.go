package catalog

// serviceAliases maps informal and regional service phrasings to canonical category tags.
// Keys are matched after accent folding, so "hidratação" and "hidratacao" hit the same entry.
var serviceAliases = map[string]string{
	// corte
	"corte":           "corte",
	"cortar":          "corte",
	"cortar cabelo":   "corte",
	"corte cabelo":    "corte",
	"corte feminino":  "corte",
	"corte masculino": "corte",
	"cabelo":          "corte",
	"franja":          "corte",
	"repicar":         "corte",
	"aparar":          "corte",

	// barba
	"barba":            "barba",
	"barbear":          "barba",
	"bigode":           "barba",
	"barba navalha":    "barba",
	"desenho barba":    "barba",
	"barboterapia":     "barba",
	"acabamento barba": "barba",
	"pezinho":          "barba",

	// sobrancelha
	"sobrancelha":         "sobrancelha",
	"sobrancelhas":        "sobrancelha",
	"design sobrancelha":  "sobrancelha",
	"henna sobrancelha":   "sobrancelha",
	"fio fio sobrancelha": "sobrancelha",
	"micropigmentacao":    "sobrancelha",

	// unhas
	"manicure":         "manicure",
	"unha":             "manicure",
	"unhas":            "manicure",
	"esmaltacao":       "manicure",
	"esmaltecao":       "manicure",
	"esmaltacao gel":   "manicure",
	"unha gel":         "manicure",
	"alongamento unha": "manicure",
	"fibra vidro":      "manicure",
	"acrigel":          "manicure",
	"manutencao unha":  "manicure",
	"francesinha":      "manicure",
	"pedicure":         "pedicure",
	"pe":               "pedicure",
	"spa pes":          "pedicure",

	// maquiagem
	"maquiagem":          "maquiagem",
	"make":               "maquiagem",
	"makeup":             "maquiagem",
	"maquiagem festa":    "maquiagem",
	"maquiagem social":   "maquiagem",
	"maquiagem noiva":    "maquiagem",
	"maquiagem madrinha": "maquiagem",

	// penteado
	"penteado":         "penteado",
	"penteado noiva":   "penteado",
	"penteado festa":   "penteado",
	"coque":            "penteado",
	"tranca":           "penteado",
	"tranca embutida":  "penteado",
	"tranca boxeadora": "penteado",
	"babyliss":         "penteado",

	// escova
	"escova":          "escova",
	"escova lisa":     "escova",
	"escova modelada": "escova",
	"chapinha":        "escova",
	"prancha":         "escova",

	// tratamentos
	"hidratacao":          "hidratacao",
	"hidratacao profunda": "hidratacao",
	"cronograma capilar":  "hidratacao",
	"reconstrucao":        "hidratacao",
	"cauterizacao":        "hidratacao",
	"selagem":             "hidratacao",
	"blindagem":           "hidratacao",
	"queratina":           "hidratacao",
	"queratinizacao":      "hidratacao",
	"nutricao":            "hidratacao",

	// cor
	"coloracao":     "coloracao",
	"tingir":        "coloracao",
	"pintar cabelo": "coloracao",
	"pintar":        "coloracao",
	"tonalizante":   "coloracao",
	"retoque raiz":  "coloracao",
	"raiz":          "coloracao",
	"platinado":     "coloracao",
	"matizacao":     "coloracao",
	"tintura":       "coloracao",

	// mechas
	"mechas":           "mechas",
	"luzes":            "mechas",
	"luzes papel":      "mechas",
	"luzes 3d":         "mechas",
	"reflexo":          "mechas",
	"reflexos":         "mechas",
	"highlights":       "mechas",
	"balayage":         "mechas",
	"ombre hair":       "mechas",
	"californianas":    "mechas",
	"morena iluminada": "mechas",

	// alisamentos
	"progressiva":        "progressiva",
	"escova progressiva": "progressiva",
	"escova definitiva":  "progressiva",
	"alisamento":         "progressiva",
	"definitiva":         "progressiva",
	"relaxamento":        "progressiva",
	"selagem capilar":    "progressiva",

	// botox
	"botox":         "botox",
	"botox capilar": "botox",
}

// stopwords are dropped before alias lookup. Canonical tags must never appear here.
var stopwords = map[string]struct{}{
	"a": {}, "o": {}, "as": {}, "os": {}, "um": {}, "uma": {},
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {},
	"em": {}, "no": {}, "na": {}, "nos": {}, "nas": {},
	"com": {}, "para": {}, "pra": {}, "por": {}, "e": {},
	"meu": {}, "minha": {}, "quero": {}, "queria": {}, "fazer": {},
	"servico": {}, "servicos": {}, "agendar": {}, "marcar": {},
}
