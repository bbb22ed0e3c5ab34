package origin

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/contra-app/fetchcache"
)

const dbpediaEndpoint = "https://dbpedia.org/sparql"

// Resource is the structured DBpedia view of a topic.
type Resource struct {
	URI        string   `json:"uri"`
	Abstract   string   `json:"abstract"`
	Categories []string `json:"categories"`
	Types      []string `json:"types"`
}

// Entity is a resource linked to another through an ontology relation.
type Entity struct {
	Label    string `json:"label"`
	URI      string `json:"uri"`
	Relation string `json:"relation"`
}

type relatedQuery struct {
	URI   string `json:"uri"`
	Limit int    `json:"limit"`
}

// DBpedia queries the public SPARQL endpoint for abstracts, categories and
// related entities of a topic.
type DBpedia struct {
	c        *Client
	endpoint string

	lookup  fetchcache.Func[string, Resource]
	related fetchcache.Func[relatedQuery, []Entity]
}

func NewDBpedia(r *fetchcache.Registry, c *Client) *DBpedia {
	d := &DBpedia{c: c, endpoint: dbpediaEndpoint}
	d.lookup = fetchcache.Memoize(r, "dbpedia.lookup", 0, "dbpedia", d.fetchResource)
	d.related = fetchcache.Memoize(r, "dbpedia.related", 0, "dbpedia", d.fetchRelated)
	return d
}

// WithEndpoint points the adapter at a different SPARQL endpoint, for tests.
func (d *DBpedia) WithEndpoint(endpoint string) *DBpedia {
	d.endpoint = endpoint
	return d
}

// Lookup resolves topic to a DBpedia resource and returns its abstract,
// categories and types.
func (d *DBpedia) Lookup(ctx context.Context, topic string) (Resource, error) {
	return d.lookup(ctx, topic)
}

// Related returns up to limit entities linked to the resource through
// dbpedia.org/ontology relations, in either direction.
func (d *DBpedia) Related(ctx context.Context, resourceURI string, limit int) ([]Entity, error) {
	if limit <= 0 {
		limit = 5
	}
	return d.related(ctx, relatedQuery{URI: resourceURI, Limit: limit})
}

// sparqlResponse is the standard SPARQL JSON results envelope.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

func (d *DBpedia) query(ctx context.Context, q string) (*sparqlResponse, error) {
	var out sparqlResponse
	u := d.endpoint + "?format=json&query=" + url.QueryEscape(q)
	if err := d.c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *DBpedia) fetchResource(ctx context.Context, topic string) (Resource, error) {
	uri, err := d.findURI(ctx, topic)
	if err != nil {
		return Resource{}, err
	}
	if uri == "" {
		return Resource{}, fmt.Errorf("no dbpedia entry for %q", topic)
	}

	q := fmt.Sprintf(`
PREFIX dbo: <http://dbpedia.org/ontology/>
PREFIX dct: <http://purl.org/dc/terms/>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?abstract
  (GROUP_CONCAT(DISTINCT ?cat; separator="; ") AS ?categories)
  (GROUP_CONCAT(DISTINCT ?type; separator="; ") AS ?types)
WHERE {
  <%s> dbo:abstract ?abstract .
  FILTER(LANG(?abstract) = 'en') .
  OPTIONAL {
    <%s> dct:subject ?catResource .
    ?catResource rdfs:label ?cat .
    FILTER(LANG(?cat) = 'en')
  }
  OPTIONAL {
    <%s> a ?typeResource .
    ?typeResource rdfs:label ?type .
    FILTER(LANG(?type) = 'en')
  }
}`, uri, uri, uri)

	resp, err := d.query(ctx, q)
	if err != nil {
		return Resource{}, err
	}

	res := Resource{URI: uri}
	if len(resp.Results.Bindings) == 0 {
		return res, nil
	}
	b := resp.Results.Bindings[0]
	res.Abstract = b["abstract"].Value
	res.Categories = splitConcat(b["categories"].Value)
	res.Types = splitConcat(b["types"].Value)
	return res, nil
}

// findURI resolves a topic label to a resource URI: exact English label
// first, case-insensitive regex match second.
func (d *DBpedia) findURI(ctx context.Context, topic string) (string, error) {
	safe := strings.ReplaceAll(topic, `"`, `\"`)

	q := fmt.Sprintf(`
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?resource WHERE {
  ?resource rdfs:label "%s"@en .
} LIMIT 1`, safe)

	resp, err := d.query(ctx, q)
	if err != nil {
		return "", err
	}
	if len(resp.Results.Bindings) > 0 {
		return resp.Results.Bindings[0]["resource"].Value, nil
	}

	q = fmt.Sprintf(`
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?resource ?label WHERE {
  ?resource rdfs:label ?label .
  FILTER(LANG(?label) = 'en') .
  FILTER(REGEX(?label, "%s", "i")) .
} LIMIT 5`, safe)

	resp, err = d.query(ctx, q)
	if err != nil {
		return "", err
	}
	if len(resp.Results.Bindings) > 0 {
		return resp.Results.Bindings[0]["resource"].Value, nil
	}
	return "", nil
}

func (d *DBpedia) fetchRelated(ctx context.Context, q relatedQuery) ([]Entity, error) {
	query := fmt.Sprintf(`
PREFIX dbo: <http://dbpedia.org/ontology/>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?entity ?label ?relation WHERE {
  {
    <%s> ?relation ?entity .
    ?entity rdfs:label ?label .
    FILTER(LANG(?label) = 'en') .
    FILTER(REGEX(STR(?relation), "^http://dbpedia.org/ontology/")) .
  } UNION {
    ?entity ?relation <%s> .
    ?entity rdfs:label ?label .
    FILTER(LANG(?label) = 'en') .
    FILTER(REGEX(STR(?relation), "^http://dbpedia.org/ontology/")) .
  }
} LIMIT %d`, q.URI, q.URI, q.Limit)

	resp, err := d.query(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]Entity, 0, len(resp.Results.Bindings))
	for _, b := range resp.Results.Bindings {
		relation := b["relation"].Value
		if i := strings.LastIndex(relation, "/"); i >= 0 {
			relation = relation[i+1:]
		}
		out = append(out, Entity{
			Label:    b["label"].Value,
			URI:      b["entity"].Value,
			Relation: relation,
		})
	}
	return out, nil
}

func splitConcat(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, "; ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
