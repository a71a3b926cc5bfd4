package templates

// DefaultTemplate is used when no template file applies.
const DefaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{ title|default:"Document" }}</title>
    {% for meta_tag in meta_tags %}
    {{ meta_tag }}
    {% endfor %}
</head>
<body>
{{ content }}
</body>
</html>
`
