package mcpserver

// EditContract describes how settings files are addressed and edited
// through the update_file tool.
const EditContract = `# terjecfg Edit Contract

Settings files are edited by position, never by rewriting raw text.
Call read_file first and address edits using the indices it returns.

## .cfg files

Each physical line has an ` + "`index`" + ` (0-based) and a ` + "`kind`" + `:
` + "`config`" + `, ` + "`comment`" + `, ` + "`empty`" + ` or ` + "`unknown`" + `.
Only ` + "`config`" + ` lines (` + "`Key = Value;`" + `) are editable.

` + "```" + `json
{"lineIndex": 1, "value": "600"}
` + "```" + `

` + "`segmentIndex`" + ` is ignored for .cfg files.

## .xml files

Each line is split into segments. Attribute segments (` + "`isAttribute: true`" + `)
and inline text segments with ` + "`editable: true`" + ` can be changed. Markup
segments cannot.

` + "```" + `json
{"lineIndex": 3, "segmentIndex": 3, "value": "30"}
` + "```" + `

Quotes and ` + "`<`" + `, ` + "`&`" + ` are escaped for you. Do not add them yourself;
references that are already escaped, such as ` + "`&amp;`" + `, are kept as they are.

Values must fit on one line. A .cfg value may only contain ` + "`;`" + ` inside
double quotes.

## Outcomes

Every edit in a batch is applied independently and gets one outcome:

| status | meaning |
|---|---|
| ok | applied |
| line_not_found | lineIndex or segmentIndex is out of range |
| not_editable | the line or segment is not a value |
| type_mismatch | the value does not fit the setting type (int, float, bool) or would break its line |

When at least one edit succeeds the file is written and a new version is
recorded. Use file_history and restore_version to undo.

## Types

Check a setting with get_setting_help before changing it. Values for
` + "`int`" + ` settings must be whole numbers, ` + "`float`" + ` settings accept decimals and
` + "`bool`" + ` settings accept true/false, 1/0, yes/no or on/off.
`
