package sqlinline

// QEnsureSchema creates the tables used by the service when they are missing.
const QEnsureSchema = `--sql 5f0b6d28-8e3a-4c91-b7f4-2a9e1d6c0b35
create table if not exists generation_jobs (
    id uuid primary key,
    session_id text not null,
    kind text not null,
    status text not null,
    aspect_ratio text,
    backend text not null,
    poll_attempts int not null default 0,
    error_detail text,
    started_at timestamptz not null default now(),
    finished_at timestamptz
);
create index if not exists generation_jobs_started_at_idx on generation_jobs (started_at desc);
create table if not exists backend_credentials (
    backend text primary key,
    api_key text not null,
    rotated_at timestamptz not null default now()
);
`
