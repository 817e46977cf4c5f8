package sqlinline

// QSelectBackendCredential returns the stored API key of a generation backend.
const QSelectBackendCredential = `--sql 2b7e94c1-0d58-4a3f-9c62-e81f5a07d4b9
select api_key
from backend_credentials
where backend = $1::text;
`

// QUpsertBackendCredential stores or rotates a backend API key.
const QUpsertBackendCredential = `--sql c4185f3a-7e2d-4b90-a6c1-3d9f02b8e571
insert into backend_credentials (backend, api_key, rotated_at)
values ($1::text, $2::text, now())
on conflict (backend) do update set
    api_key = excluded.api_key,
    rotated_at = excluded.rotated_at;
`
